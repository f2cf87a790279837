package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripBearerPrefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lower case scheme", "bearer abc", "abc"},
		{"bare token", "abc.def.ghi", "abc.def.ghi"},
		{"surrounding spaces", "  Bearer   abc  ", "abc"},
		{"empty", "", ""},
		{"scheme only", "Bearer ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripBearerPrefix(tt.in))
		})
	}
}
