package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionStringRoundTrip(t *testing.T) {
	cases := []struct {
		pos   Position
		label string
	}{
		{Position{Row: 0, Col: 0}, "A1"},
		{Position{Row: 0, Col: 25}, "Z1"},
		{Position{Row: 0, Col: 26}, "AA1"},
		{Position{Row: 0, Col: 27}, "AB1"},
		{Position{Row: 9, Col: 701}, "ZZ10"},
		{Position{Row: 99, Col: 702}, "AAA100"},
	}
	for _, c := range cases {
		t.Run(c.label, func(t *testing.T) {
			assert.Equal(t, c.label, c.pos.String())

			parsed, err := ParsePosition(c.label)
			assert.NoError(t, err)
			assert.Equal(t, c.pos, parsed)
		})
	}
}

func TestParsePositionRejectsMalformedLabels(t *testing.T) {
	malformed := []string{"", "1", "A", "1A", "A-1", "A0", "a1"}
	for _, label := range malformed {
		t.Run(label, func(t *testing.T) {
			_, err := ParsePosition(label)
			assert.Error(t, err)
		})
	}
}

func TestParsePositionRejectsOutOfRange(t *testing.T) {
	_, err := ParsePosition("ZZZZZ1")
	assert.Error(t, err)
}

func TestPositionIsValid(t *testing.T) {
	assert.True(t, Position{Row: 0, Col: 0}.IsValid())
	assert.True(t, Position{Row: MaxPos - 1, Col: MaxPos - 1}.IsValid())
	assert.False(t, NonePosition.IsValid())
	assert.False(t, Position{Row: MaxPos, Col: 0}.IsValid())
	assert.False(t, Position{Row: 0, Col: -1}.IsValid())
}

func TestSizeIsZero(t *testing.T) {
	assert.True(t, Size{}.IsZero())
	assert.False(t, Size{Rows: 1, Cols: 0}.IsZero())
}
