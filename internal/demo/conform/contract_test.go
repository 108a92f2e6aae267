package conform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopernurse/barrister/idl"
	"github.com/coopernurse/barrister/idl/semantic"
)

func TestContract_PassesSemanticValidation(t *testing.T) {
	errs := semantic.Validate(Contract())
	require.Empty(t, errs)
}

func TestContract_DeclaresExpectedInterfaces(t *testing.T) {
	c := Contract()
	names := map[string]bool{}
	for _, e := range c {
		if iface, ok := e.(*idl.Interface); ok {
			names[iface.Name] = true
		}
	}
	assert.True(t, names["MyService"])
	assert.True(t, names["UserService"])
	assert.True(t, names["Echo"])
}
