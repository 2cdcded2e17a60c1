package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldKey(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"Count":         "count",
		"IdentityID":    "identity_id",
		"DisplayName":   "display_name",
		"HTTPServer":    "http_server",
		"WindowRadius2": "window_radius2",
		"Step2Duration": "step2_duration",
	}

	for in, want := range tests {
		assert.Equal(t, want, fieldKey(in), in)
	}
}
