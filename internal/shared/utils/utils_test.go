package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("two-sum_01", "challenge_id", true))
	assert.Error(t, ValidateID("", "challenge_id", true))
	assert.Error(t, ValidateID("../etc/passwd", "challenge_id", true))
	assert.Error(t, ValidateID("id with spaces", "challenge_id", true))
	assert.Error(t, ValidateID(strings.Repeat("a", MaxIDLength+1), "challenge_id", true))
}

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode("function solution() { return 1 }"))
	assert.Error(t, ValidateCode(""))
	assert.Error(t, ValidateCode("bad\x00byte"))
	assert.Error(t, ValidateCode(strings.Repeat("x", MaxCodeSize+1)))
}

func TestValidateDepth(t *testing.T) {
	nested := interface{}(map[string]interface{}{"a": []interface{}{map[string]interface{}{"b": 1}}})
	assert.NoError(t, ValidateDepth(nested, 5))
	assert.Error(t, ValidateDepth(nested, 2))
}

func TestHasherDeterministic(t *testing.T) {
	h := DefaultHasher()
	assert.Equal(t, h.HashString("abc"), h.HashString("abc"))
	assert.NotEqual(t, h.HashString("abc"), h.HashString("abd"))
	assert.Len(t, ShortHash(h.HashString("abc")), 8)
}
