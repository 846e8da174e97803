package testfixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("med")
	assert.Equal(t, "med-1", gen.Next())
	next := gen.NextFunc()
	assert.Equal(t, "med-2", next())

	gen.Reset()
	assert.Equal(t, "med-1", gen.Next())

	assert.Equal(t, "id-1", NewIDGenerator("").Next())

	var nilGen *IDGenerator
	assert.Equal(t, "", nilGen.NextFunc()())
}
