package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		line  DisplayLine
		width int
		want  string
	}{
		{
			name:  "fits unchanged",
			line:  DisplayLine{Prefix: "> ", Text: []string{"hello"}},
			width: 10,
			want:  "> hello",
		},
		{
			name:  "exact width is not cut",
			line:  DisplayLine{Text: []string{"0123456789"}},
			width: 10,
			want:  "0123456789",
		},
		{
			name:  "cut fills width with ellipsis",
			line:  DisplayLine{Text: []string{"abcdefghijklmnopqrstuvwxyz"}},
			width: 10,
			want:  "abcdefg...",
		},
		{
			name:  "indent and prefix reduce room",
			line:  DisplayLine{Indent: 4, Prefix: "> ", Text: []string{"abcdefghijkl"}},
			width: 12,
			want:  "    > abc...",
		},
		{
			name:  "cut spans fragments",
			line:  DisplayLine{Text: []string{"abc", " ", "defghij"}},
			width: 8,
			want:  "abc d...",
		},
		{
			name:  "tabs expand from text start",
			line:  DisplayLine{Prefix: "> ", Text: []string{"a\tb"}},
			width: 40,
			want:  "> a       b",
		},
		{
			name:  "tab column carries across fragments",
			line:  DisplayLine{Text: []string{"abc", "\tx"}},
			width: 40,
			want:  "abc     x",
		},
		{
			name:  "escape sequences stripped",
			line:  DisplayLine{Text: []string{"\x1b[31mred\x1b[0m"}},
			width: 40,
			want:  "red",
		},
		{
			name:  "prefix alone overflows",
			line:  DisplayLine{Indent: 2, Prefix: "+--------", Text: []string{"x"}},
			width: 6,
			want:  "  +---",
		},
		{
			name:  "ellipsis truncated when barely any room",
			line:  DisplayLine{Text: []string{"abcdef"}},
			width: 2,
			want:  "..",
		},
		{
			name:  "zero width",
			line:  DisplayLine{Prefix: "> ", Text: []string{"abc"}},
			width: 0,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Fit(tt.line, tt.width)
			assert.Equal(t, tt.want, got.String())
			assert.LessOrEqual(t, got.Width(), tt.width)
		})
	}
}

func TestFit_CutLineIsExactlyWidth_When_Overflowing(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 100)
	for width := 3; width < 60; width++ {
		got := Fit(DisplayLine{Text: []string{text}}, width)
		assert.Equal(t, width, got.Width(), "width %d", width)
		assert.True(t, strings.HasSuffix(got.String(), Ellipsis))
	}
}

func TestFit_CountsWideRunes(t *testing.T) {
	t.Parallel()

	got := Fit(DisplayLine{Text: []string{"日本語のテキスト"}}, 9)
	assert.LessOrEqual(t, got.Width(), 9)
	assert.True(t, strings.HasSuffix(got.String(), Ellipsis))
	assert.Equal(t, "日本語...", got.String())
}
