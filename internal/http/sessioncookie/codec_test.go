package sessioncookie

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	c := New([]byte("test-secret"), "mh_box_session", false)

	v := c.Encode("abc-123")
	id, err := c.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

func TestDecodeRejectsTampering(t *testing.T) {
	c := New([]byte("test-secret"), "mh_box_session", false)
	v := c.Encode("abc-123")

	tests := []struct {
		name  string
		value string
	}{
		{"swapped id", "other-id." + strings.SplitN(v, ".", 2)[1]},
		{"truncated", v[:len(v)-4]},
		{"no signature", "abc-123"},
		{"empty id", c.Encode("")},
		{"garbage", "not a cookie"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.value)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	v := New([]byte("secret-a"), "n", false).Encode("abc-123")
	_, err := New([]byte("secret-b"), "n", false).Decode(v)
	assert.ErrorIs(t, err, ErrInvalid)
}
