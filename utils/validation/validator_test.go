package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Universidade   Federal ", "Universidade Federal"},
		{"Engenharia\tde\nSoftware", "Engenharia de Software"},
		{"Direito", "Direito"},
		{"   ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in))
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("aluno@example.com"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail(""))
}
