package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/unowned-ai/moodlog/pkg/moods"
)

// Color palette "Blue Moon" from https://gogh-co.github.io/Gogh/
const (
	colorGray     = "#353b52"
	colorGreenDim = "#b4c4b4"
	colorRedDim   = "#d06178"
	colorPurple   = "#b9a3eb"
	colorBlue     = "#89ddff"
)

// palette holds the styles for one output stream. Colors are dropped when
// the stream is not a terminal.
type palette struct {
	title    lipgloss.Style
	header   lipgloss.Style
	positive lipgloss.Style
	negative lipgloss.Style
	neutral  lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorBlue)),
		header:   r.NewStyle().Foreground(lipgloss.Color(colorPurple)),
		positive: r.NewStyle().Foreground(lipgloss.Color(colorGreenDim)),
		negative: r.NewStyle().Foreground(lipgloss.Color(colorRedDim)),
		neutral:  r.NewStyle().Foreground(lipgloss.Color(colorGray)),
	}
}

func (p palette) category(c moods.Category, text string) string {
	switch c {
	case moods.CategoryPositive:
		return p.positive.Render(text)
	case moods.CategoryNegative:
		return p.negative.Render(text)
	default:
		return p.neutral.Render(text)
	}
}

// mood colors a 0-10 score: 7 and up reads positive, 3 and below negative.
func (p palette) mood(score int, text string) string {
	switch {
	case score >= 7:
		return p.positive.Render(text)
	case score <= 3:
		return p.negative.Render(text)
	default:
		return text
	}
}
