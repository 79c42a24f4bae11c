package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSameMediumDifferingVerifyPath(t *testing.T) {
	t.Parallel()
	a := MediaSpec{Label: "a", VerifyDataPath: "media.1/media"}
	b := MediaSpec{Label: "b", VerifyDataPath: "media.2/media"}
	assert.Equal(t, False, IsSameMedium(a, b))
}

func TestIsSameMediumMatchingVerifyPath(t *testing.T) {
	t.Parallel()
	a := MediaSpec{VerifyDataPath: "media.1/media", MediaNr: 1}
	b := MediaSpec{VerifyDataPath: "media.1/media", MediaNr: 1}
	assert.Equal(t, True, IsSameMedium(a, b))

	c := MediaSpec{VerifyDataPath: "media.1/media", MediaNr: 2}
	assert.Equal(t, False, IsSameMedium(a, c))
}

func TestIsSameMediumIndeterminateWithoutVerifyPath(t *testing.T) {
	t.Parallel()
	a := MediaSpec{Label: "a", MediaNr: 0}
	b := MediaSpec{Label: "a", MediaNr: 99}
	assert.Equal(t, Indeterminate, IsSameMedium(a, b))
}

func TestIsSameMediumReflexive(t *testing.T) {
	t.Parallel()
	specs := []MediaSpec{
		{VerifyDataPath: "x", MediaNr: 3},
		{VerifyDataPath: "", MediaNr: 3},
	}
	for _, s := range specs {
		result := IsSameMedium(s, s)
		assert.NotEqual(t, False, result, "a medium spec must never be False relative to itself")
	}
}

func TestIsSameMediumSymmetric(t *testing.T) {
	t.Parallel()
	a := MediaSpec{VerifyDataPath: "x", MediaNr: 1}
	b := MediaSpec{VerifyDataPath: "y", MediaNr: 1}
	assert.Equal(t, IsSameMedium(a, b), IsSameMedium(b, a))

	c := MediaSpec{VerifyDataPath: "x", MediaNr: 2}
	assert.Equal(t, IsSameMedium(a, c), IsSameMedium(c, a))
}

func TestTriboolString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "true", True.String())
	assert.Equal(t, "false", False.String())
	assert.Equal(t, "indeterminate", Indeterminate.String())
}
