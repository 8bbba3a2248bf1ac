package mailparse

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParagraphsStructuredAndProse(t *testing.T) {
	input := "Here are the options:\n- Option A\n- Option B\n\nThis paragraph spans\nseveral lines of text."

	got := slices.Collect(Paragraphs(input))
	assert.Equal(t, []string{
		"Here are the options:\n- Option A\n- Option B",
		"This paragraph spans several lines of text.",
	}, got)
}

func TestParagraphsStructuredShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"numbered", "Steps\n1. Sign the LOI\n2. Wire the deposit"},
		{"caps header", "PROPERTY DETAILS\nThree floors of office space"},
		{"key value", "Price: $1.2M\nCap rate: 6.5%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Paragraphs(tt.input))
			assert.Equal(t, []string{tt.input}, got)
		})
	}
}

func TestParagraphsStripsQuotesAndBlankRuns(t *testing.T) {
	input := "> quoted line\n> continues here\n>\n\n\n\n   \nnext para\r\nends"

	got := slices.Collect(Paragraphs(input))
	assert.Equal(t, []string{"quoted line continues here", "next para ends"}, got)
}

func TestParagraphsNeverEmpty(t *testing.T) {
	assert.Empty(t, slices.Collect(Paragraphs("")))
	assert.Empty(t, slices.Collect(Paragraphs("\n\n   \n>\n")))
}

func TestParagraphsSplitsLongProse(t *testing.T) {
	var sentences []string
	for i := range 12 {
		sentences = append(sentences, fmt.Sprintf("This is sentence number %d in a long paragraph.", i))
	}
	input := strings.Join(sentences, " ")
	require.Greater(t, len(input), 500)

	got := slices.Collect(Paragraphs(input))
	require.Greater(t, len(got), 1)
	for _, chunk := range got {
		assert.LessOrEqual(t, len(chunk), 300)
		assert.NotEmpty(t, chunk)
	}
	assert.Equal(t, input, strings.Join(got, " "))
}

func TestParagraphsKeepsLongStructured(t *testing.T) {
	var lines []string
	for i := range 15 {
		lines = append(lines, fmt.Sprintf("- Item %d has a description that is fairly long.", i))
	}
	input := strings.Join(lines, "\n")
	require.Greater(t, len(input), 500)

	got := slices.Collect(Paragraphs(input))
	assert.Equal(t, []string{input}, got)
}

func TestParagraphsLongWithoutPunctuation(t *testing.T) {
	input := strings.Repeat("word ", 150)
	got := slices.Collect(Paragraphs(input))
	assert.Equal(t, []string{strings.TrimSpace(input)}, got)
}

func TestParagraphsRestartable(t *testing.T) {
	seq := Paragraphs("First.\n\nSecond.\n\nThird.")

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, []string{"First.", "Second.", "Third."}, first)
	assert.Equal(t, first, second)
}

func TestParagraphsEarlyStop(t *testing.T) {
	var got []string
	for p := range Paragraphs("First.\n\nSecond.\n\nThird.") {
		got = append(got, p)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"First.", "Second."}, got)
}

func TestParserParagraphsUsesOptions(t *testing.T) {
	p := NewParser(WithOptions(Options{LongParagraph: 40, ParagraphChunk: 30}))

	got := slices.Collect(p.Paragraphs("The roof was replaced. The HVAC is new. Parking is ample."))
	assert.Equal(t, []string{"The roof was replaced.", "The HVAC is new.", "Parking is ample."}, got)
}
