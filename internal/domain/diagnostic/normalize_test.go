package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases", input: "Ma Perceuse", expected: "ma perceuse"},
		{name: "trims whitespace", input: "  ma perceuse  ", expected: "ma perceuse"},
		{name: "collapses punctuation", input: "perceuse... ne démarre pas!!!", expected: "perceuse ne démarre pas"},
		{name: "collapses inner runs", input: "scie -- coupe   mal", expected: "scie coupe mal"},
		{name: "keeps digits", input: "modèle 3000 en panne", expected: "modèle 3000 en panne"},
		{name: "keeps accents", input: "Pièce cassée", expected: "pièce cassée"},
		{name: "empty", input: "", expected: ""},
		{name: "only punctuation", input: "?!?", expected: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, normalizeQuery(tc.input))
		})
	}
}
