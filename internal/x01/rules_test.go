package x01

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	doubleOut := DefaultSettings(1, 1)
	straightOut := doubleOut
	straightOut.DoubleOut = false

	tests := []struct {
		name      string
		settings  Settings
		remaining int
		input     int
		want      int
		bust      bool
		err       error
	}{
		{"regular visit", doubleOut, 501, 60, 441, false, nil},
		{"zero visit", doubleOut, 501, 0, 501, false, nil},
		{"maximum", doubleOut, 501, 180, 321, false, nil},
		{"checkout", doubleOut, 40, 40, 0, false, nil},
		{"big fish", doubleOut, 170, 170, 0, false, nil},
		{"overshoot", doubleOut, 40, 60, 40, true, nil},
		{"leaves one", doubleOut, 40, 39, 40, true, nil},
		{"bogey finish", doubleOut, 169, 169, 169, false, ErrInvalidThrow},
		{"no double finish", doubleOut, 159, 159, 159, true, nil},
		{"finish above 170", doubleOut, 180, 180, 180, true, nil},
		{"straight out leaves one", straightOut, 40, 39, 1, false, nil},
		{"straight out 180 finish", straightOut, 180, 180, 0, false, nil},
		{"straight out overshoot", straightOut, 20, 21, 20, true, nil},
		{"impossible visit", doubleOut, 501, 179, 501, false, ErrInvalidThrow},
		{"negative visit", doubleOut, 501, -1, 501, false, ErrInvalidThrow},
		{"above maximum", doubleOut, 501, 181, 501, false, ErrInvalidThrow},
		{"negative remaining", doubleOut, -5, 20, -5, false, ErrInvalidThrow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bust, err := Evaluate(tt.settings, tt.remaining, tt.input)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.bust, bust)
		})
	}
}

func TestCanCheckout(t *testing.T) {
	doubleOut := DefaultSettings(1, 1)
	for _, r := range []int{2, 40, 50, 100, 121, 160, 161, 164, 167, 170} {
		assert.True(t, CanCheckout(doubleOut, r), "remaining %d", r)
	}
	for _, r := range []int{0, 1, 159, 162, 163, 165, 166, 168, 169, 171, 501} {
		assert.False(t, CanCheckout(doubleOut, r), "remaining %d", r)
	}
}
