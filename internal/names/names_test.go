package names_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitinho/mailscout/internal/names"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii", "Ana", "ana"},
		{"accented", "José", "jose"},
		{"cedilla", "Gonçalves", "goncalves"},
		{"umlaut", "Müller", "muller"},
		{"inner whitespace", "de la Cruz", "delacruz"},
		{"surrounding whitespace", "  Souza \t", "souza"},
		{"already lower", "maria", "maria"},
		{"empty", "", ""},
		{"only spaces", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names.Normalize(tt.in))
		})
	}
}

func TestInitial(t *testing.T) {
	assert.Equal(t, "a", names.Initial("Ana"))
	assert.Equal(t, "e", names.Initial("Édouard"))
	assert.Equal(t, "", names.Initial(""))
	assert.Equal(t, "", names.Initial("  "))
}
