package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// Format selects the output encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatText:
		return f, nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or text)", s)
}

var (
	classStyle   = lipgloss.NewStyle().Bold(true)
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	builtinStyle = lipgloss.NewStyle().Faint(true)
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	width  int
}

// NewFormatter creates a new formatter. width bounds wrapped text output.
func NewFormatter(writer io.Writer, width int) *Formatter {
	if width <= 0 {
		width = 80
	}
	return &Formatter{writer: writer, width: width}
}

// FormatClasses writes classes in the given format
func (f *Formatter) FormatClasses(classes []ClassDTO, format Format) error {
	if format == FormatText {
		return f.formatClassesText(classes)
	}
	return f.FormatResult(classes)
}

// FormatResult formats any value as indented JSON
func (f *Formatter) FormatResult(result any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (f *Formatter) formatClassesText(classes []ClassDTO) error {
	var b strings.Builder
	for i, c := range classes {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(classStyle.Render(c.Name))
		if c.Default != "" {
			fmt.Fprintf(&b, " (default %s)", c.Default)
		}
		b.WriteString("\n")

		keyWidth := 0
		for _, u := range c.Units {
			keyWidth = max(keyWidth, runewidth.StringWidth(u.Key))
		}
		descWidth := max(f.width-keyWidth-4, 20)
		for _, u := range c.Units {
			style := keyStyle
			if u.Builtin {
				style = builtinStyle
			}
			key := style.Render(runewidth.FillRight(u.Key, keyWidth))
			lines := strings.Split(wordwrap.String(u.Description, descWidth), "\n")
			fmt.Fprintf(&b, "  %s  %s\n", key, lines[0])
			if len(lines) > 1 {
				rest := strings.Join(lines[1:], "\n")
				b.WriteString(indent.String(rest, uint(keyWidth+4)))
				b.WriteString("\n")
			}
		}
	}
	_, err := io.WriteString(f.writer, b.String())
	return err
}
