package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectRedFlags(t *testing.T) {
	flags := DetectRedFlags("I have chest pain and a severe headache")
	assert.Contains(t, flags, "chest pain")
	assert.Contains(t, flags, "severe headache")
}

func TestDetectRedFlagsCanonicalOrder(t *testing.T) {
	// text order is reversed; result order must follow the keyword list
	flags := DetectRedFlags("severe headache came first, then CHEST PAIN")
	assert.Equal(t, []string{"chest pain", "severe headache"}, flags)
}

func TestDetectRedFlagsEmpty(t *testing.T) {
	assert.Empty(t, DetectRedFlags(""))
	assert.Empty(t, DetectRedFlags("just a mild cough"))
}

func TestDetectRedFlagsNoDuplicates(t *testing.T) {
	flags := DetectRedFlags("chest pain, more chest pain, still chest pain")
	assert.Equal(t, []string{"chest pain"}, flags)
}
