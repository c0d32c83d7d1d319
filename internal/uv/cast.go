package uv

import (
	"fmt"
	"strconv"
	"strings"
)

// CastWarning is returned alongside a successful Cast when the conversion
// silently narrowed (e.g. a fractional float truncated to an int). Callers
// report it to the diagnostics stream; it never turns the cast into an
// error.
type CastWarning struct {
	Message string
}

// CastError reports a cast that could not be performed at all (e.g.
// "abc" as int).
type CastError struct {
	Message string
}

func (e *CastError) Error() string { return e.Message }

// Cast coerces v to the target kind per §4.5's coercion table. target must
// be one of KindInt, KindFloat, KindBool, KindString.
func Cast(v Value, target Kind) (Value, *CastWarning, error) {
	switch target {
	case KindInt:
		return castToInt(v)
	case KindFloat:
		return castToFloat(v)
	case KindBool:
		return castToBool(v)
	case KindString:
		return castToString(v)
	default:
		return Null, nil, &CastError{Message: fmt.Sprintf("cannot cast to %s", target)}
	}
}

func castToInt(v Value) (Value, *CastWarning, error) {
	switch v.Kind {
	case KindNull:
		return Null, nil, nil
	case KindBool:
		if v.Bool {
			return NewInt(1), nil, nil
		}
		return NewInt(0), nil, nil
	case KindInt:
		return v, nil, nil
	case KindFloat:
		truncated := int64(v.Float)
		if float64(truncated) != v.Float {
			return NewInt(truncated), &CastWarning{Message: fmt.Sprintf("truncated %s to %d casting to int", formatFloat(v.Float), truncated)}, nil
		}
		return NewInt(truncated), nil, nil
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return Null, nil, &CastError{Message: fmt.Sprintf("cannot cast %q to int", v.Str)}
		}
		return NewInt(n), nil, nil
	default:
		return Null, nil, &CastError{Message: fmt.Sprintf("cannot cast %s to int", v.Kind)}
	}
}

func castToFloat(v Value) (Value, *CastWarning, error) {
	switch v.Kind {
	case KindNull:
		return Null, nil, nil
	case KindBool:
		if v.Bool {
			return NewFloat(1), nil, nil
		}
		return NewFloat(0), nil, nil
	case KindInt:
		return NewFloat(float64(v.Int)), nil, nil
	case KindFloat:
		return v, nil, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return Null, nil, &CastError{Message: fmt.Sprintf("cannot cast %q to float", v.Str)}
		}
		return NewFloat(f), nil, nil
	default:
		return Null, nil, &CastError{Message: fmt.Sprintf("cannot cast %s to float", v.Kind)}
	}
}

func castToBool(v Value) (Value, *CastWarning, error) {
	switch v.Kind {
	case KindNull:
		return NewBool(false), nil, nil
	case KindBool:
		return v, nil, nil
	case KindInt:
		return NewBool(v.Int != 0), nil, nil
	case KindFloat:
		return NewBool(v.Float != 0 && v.Float == v.Float), nil, nil // v.Float == v.Float excludes NaN
	case KindString:
		switch strings.ToLower(v.Str) {
		case "true":
			return NewBool(true), nil, nil
		case "false":
			return NewBool(false), nil, nil
		default:
			return Null, nil, &CastError{Message: fmt.Sprintf("cannot cast %q to bool", v.Str)}
		}
	default:
		return Null, nil, &CastError{Message: fmt.Sprintf("cannot cast %s to bool", v.Kind)}
	}
}

func castToString(v Value) (Value, *CastWarning, error) {
	switch v.Kind {
	case KindNull:
		return NewString(""), nil, nil
	case KindBool:
		if v.Bool {
			return NewString("true"), nil, nil
		}
		return NewString("false"), nil, nil
	case KindInt:
		return NewString(strconv.FormatInt(v.Int, 10)), nil, nil
	case KindFloat:
		return NewString(formatFloat(v.Float)), nil, nil
	case KindString:
		return v, nil, nil
	default:
		return Null, nil, &CastError{Message: fmt.Sprintf("cannot cast %s to string", v.Kind)}
	}
}
