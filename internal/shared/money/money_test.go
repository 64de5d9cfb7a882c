package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMajorUnits(t *testing.T) {
	tests := []struct {
		name  string
		cents int
		want  string
	}{
		{"zero", 0, "0.00"},
		{"under a unit", 99, "0.99"},
		{"one ninety nine", 199, "1.99"},
		{"round hundred", 10050, "100.50"},
		{"whole units", 1200, "12.00"},
		{"single minor digit", 1205, "12.05"},
		{"negative", -199, "-1.99"},
		{"negative under a unit", -50, "-0.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MajorUnits(tt.cents))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$12.00", Format(1200, "USD"))
	assert.Equal(t, "€5.50", Format(550, "EUR"))
	// unknown currency falls back to the code
	assert.Equal(t, "SEK 9.99", Format(999, "SEK"))
}
