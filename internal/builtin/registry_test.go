package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRegistryHasCanonicalFunctions(t *testing.T) {
	for _, name := range []string{"join", "split", "lower", "round", "keys", "coalesce", "now", "env", "type_of"} {
		_, ok := Default.Lookup(name)
		assert.True(t, ok, "expected %q to be registered", name)
	}
}

func TestValidateArityRange(t *testing.T) {
	assert.NoError(t, Default.Validate("split", 2))
	assert.Error(t, Default.Validate("split", 1))
	assert.Error(t, Default.Validate("split", 3))
}

func TestValidateUnboundedMax(t *testing.T) {
	assert.NoError(t, Default.Validate("coalesce", 1))
	assert.NoError(t, Default.Validate("coalesce", 5))
}

func TestValidateUnknownFunction(t *testing.T) {
	assert.Error(t, Default.Validate("nope", 1))
}

func TestNamesNonEmpty(t *testing.T) {
	assert.True(t, len(Default.Names()) > 30)
}
