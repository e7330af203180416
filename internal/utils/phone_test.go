package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUserID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"whatsapp:+22997000000", "22997000000"},
		{"22997000000@c.us", "22997000000"},
		{"22997000000:3@c.us", "22997000000"},
		{"+22997000000", "22997000000"},
		{"  22997000000 ", "22997000000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeUserID(tt.in))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{"full number", "2290197123456", "2290197123456", true},
		{"formatted", "+229 01 97 12 34 56", "2290197123456", true},
		{"minimum length", "22912345678", "22912345678", true},
		{"one digit short", "2291234567", "2291234567", false},
		{"missing prefix", "0197123456", "0197123456", false},
		{"letters only", "abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("0"))
	assert.True(t, IsDigits("0042"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("-1"))
	assert.False(t, IsDigits("4 2"))
	assert.False(t, IsDigits("１２")) // full-width digits
}
