package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSplitPart(t *testing.T) {
	part, err := GetSplitPart("/app/1145360/Hades/", "/", 2)
	assert.NoError(t, err)
	assert.Equal(t, "1145360", part)

	_, err = GetSplitPart("a/b", "/", 5)
	assert.Error(t, err)
	_, err = GetSplitPart("a/b", "/", -1)
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Balatro", "Hades"}, SplitList(" Balatro ;; Hades; ", ";"))
	assert.Nil(t, SplitList("  ", ";"))
}
