package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixed-width measure: 10 units per byte.
func measure(s string) float64 { return float64(len(s)) * 10 }

func testBounds() ChipBounds {
	return ChipBounds{Left: 50, Right: 250, Top: 100, Bottom: 300, RowHeight: 35, Padding: 5, Gap: 10}
}

func TestLayoutChipsWrapsInOrder(t *testing.T) {
	// widths: 60, 80, 50, 130
	got := LayoutChips([]string{"vocal", "guitars", "bass", "percussion!!"}, measure, testBounds())
	require.Len(t, got, 4)

	assert.Equal(t, ChipPlacement{Text: "vocal", X: 50, Y: 100, Width: 60, Row: 0}, got[0])
	assert.Equal(t, ChipPlacement{Text: "guitars", X: 120, Y: 100, Width: 80, Row: 0}, got[1])
	// 210 + 50 > 250 → next row
	assert.Equal(t, ChipPlacement{Text: "bass", X: 50, Y: 135, Width: 50, Row: 1}, got[2])
	assert.Equal(t, ChipPlacement{Text: "percussion!!", X: 110, Y: 135, Width: 130, Row: 1}, got[3])

	for _, p := range got {
		assert.LessOrEqual(t, p.X+p.Width, 250.0)
	}
}

func TestLayoutChipsNeverRevisitsEarlierRows(t *testing.T) {
	// "xxxxxxxxxxxxxx" (150) does not fit after "aaaa" (50), "b" would fit back on row 0
	// but must stay on the new row.
	got := LayoutChips([]string{"aaaa", "xxxxxxxxxxxxxx", "b"}, measure, testBounds())
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Row)
	assert.Equal(t, 1, got[1].Row)
	assert.Equal(t, 1, got[2].Row)
	assert.Equal(t, 210.0, got[2].X)
}

func TestLayoutChipsOversizedChipIsNotSplit(t *testing.T) {
	long := "a-very-long-skill-name-that-is-wider-than-the-row"
	got := LayoutChips([]string{long, "x"}, measure, testBounds())
	require.Len(t, got, 2)
	assert.Equal(t, 50.0, got[0].X)
	assert.Equal(t, 0, got[0].Row)
	assert.Equal(t, long, got[0].Text)
	assert.Equal(t, 1, got[1].Row)
}

func TestLayoutChipsFlagsOverflowWithoutNewPage(t *testing.T) {
	skills := make([]string, 12)
	for i := range skills {
		skills[i] = "fifteen-chars!!" // 160 wide, one per row
	}
	got := LayoutChips(skills, measure, testBounds())
	require.Len(t, got, 12)

	for i, p := range got {
		assert.Equal(t, i, p.Row)
		assert.Equal(t, 100+35*float64(i), p.Y)
	}
	// rows 0..4 end at or before 300
	assert.False(t, got[4].Overflow)
	assert.True(t, got[5].Overflow)
	assert.True(t, got[11].Overflow)
}

func TestLayoutChipsEmpty(t *testing.T) {
	assert.Empty(t, LayoutChips(nil, measure, testBounds()))
}
