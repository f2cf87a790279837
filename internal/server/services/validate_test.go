package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterRequest_EmailFormat(t *testing.T) {
	tests := map[string]bool{
		"alice@example.com":         true,
		"alice+tag@example.co.uk":   true,
		"first.last@sub.example.io": true,
		"alice":                     false,
		"alice@":                    false,
		"@example.com":              false,
		"alice example@x.io":        false,
	}

	for email, valid := range tests {
		t.Run(email, func(t *testing.T) {
			err := RegisterRequest{Username: "alice", Email: email, Password: "secret1"}.Validate()
			if valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, "email")
			}

			err = UpdateRequest{Email: &email}.Validate()
			if valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, "email")
			}
		})
	}
}
