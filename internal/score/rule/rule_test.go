package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_Valid(t *testing.T) {
	assert.True(t, (&Rule{Check: CheckContains, Target: AllFields()}).Valid())
	assert.False(t, (&Rule{Check: "", Target: AllFields()}).Valid())
	assert.False(t, (&Rule{Check: CheckContains}).Valid())
}

func TestNew(t *testing.T) {
	r, err := New("spam", CheckContains, 10, AllFields(), "casino")
	require.NoError(t, err)
	assert.Equal(t, []string{"casino"}, r.Values.Needles)

	_, err = New("bad", CheckLengthOver, 10, AllFields(), -1)
	assert.Error(t, err)

	_, err = New("bad", CheckIsBool, 10, AllFields(), "maybe")
	assert.Error(t, err)

	r, err = New("flag", CheckIsBool, 10, Property("honeypot"), 1)
	require.NoError(t, err)
	assert.True(t, r.Values.Flag)
}

func TestSet_Unknown(t *testing.T) {
	known, err := New("spam", CheckContains, 10, AllFields(), "casino")
	require.NoError(t, err)
	odd := Rule{Name: "odd", Check: "sounds_like", Score: 1, Target: AllFields()}

	unknown := Set{known, odd}.Unknown()
	require.Len(t, unknown, 1)
	assert.Equal(t, "odd", unknown[0].Name)
	assert.Empty(t, Set{known}.Unknown())
	assert.Empty(t, Set(nil).Unknown())
}

func TestFields_NonNil(t *testing.T) {
	assert.NotNil(t, Fields().Fields)
	assert.Equal(t, TargetExplicitFields, Fields().Kind)
}

func TestRule_Expression_MustReturnBool(t *testing.T) {
	_, err := New("", CheckExpression, 1, AllFields(), `value + "x"`)
	assert.Error(t, err)

	_, err = New("", CheckExpression, 1, AllFields(), `size(value) > 3 && !is_null`)
	assert.NoError(t, err)
}
