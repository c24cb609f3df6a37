package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank(t *testing.T) {
	list := Rank("FulName", []string{"ID", "Email", "FullName"})

	assert.Len(t, list, 3)
	assert.Equal(t, "FullName", list[0].Name)
	assert.Equal(t, []string{"FullName"}, list.Top(1).Names())
}

func TestSuggest(t *testing.T) {
	names := []string{"ID", "Email", "FullName", "Members"}

	assert.Equal(t, []string{"FullName"}, Suggest("fullname", names, 3))
	assert.Equal(t, []string{"Members"}, Suggest("Member", names, 3))
	assert.Empty(t, Suggest("Zzz", names, 3))
}

func TestRank_Determinism(t *testing.T) {
	names := []string{"Aa", "Ab", "Ac"}

	for range 10 {
		assert.Equal(t, []string{"Aa", "Ab", "Ac"}, Rank("Ax", names).Names())
	}
}
