package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Summer Dresses", "summer-dresses"},
		{"punctuation", "Hello   World!", "hello-world"},
		{"accents", "Kadın Giyim", "kadin-giyim"},
		{"leading trailing", "  --Shirts--  ", "shirts"},
		{"numbers", "Size 42 Jeans", "size-42-jeans"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.in))
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("summer-dresses"))
	assert.True(t, Valid("size-42"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("Summer Dresses"))
	assert.False(t, Valid("double--hyphen"))
	assert.False(t, Valid("-leading"))
}
