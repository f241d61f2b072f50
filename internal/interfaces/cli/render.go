package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dipanjanswapna/ongonbd/internal/domain/notification"
	"github.com/dipanjanswapna/ongonbd/pkg/errors"
)

var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	colorError   = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#FB7185"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorInfo    = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// Renderer draws notifications as bordered boxes coloured by kind.
type Renderer struct {
	width int
}

// NewRenderer creates a renderer. Widths under 30 are raised to 30.
func NewRenderer(width int) *Renderer {
	if width < 30 {
		width = 30
	}
	return &Renderer{width: width}
}

// Render writes every notification, oldest first.
func (r *Renderer) Render(w io.Writer, list []notification.Notification) error {
	if len(list) == 0 {
		return nil
	}
	boxes := make([]string, 0, len(list))
	for _, n := range list {
		boxes = append(boxes, r.box(n))
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, boxes...))
	return err
}

func (r *Renderer) box(n notification.Notification) string {
	color, icon := kindStyle(n.Kind)

	iconStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	body := n.Message
	if n.Title != "" {
		body = lipgloss.NewStyle().Bold(true).Render(n.Title) + "\n" + body
	}
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		iconStyle.Render(icon+" "),
		lipgloss.NewStyle().Width(r.width-8).Render(body),
	)

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		MaxWidth(r.width).
		Render(content)
}

func kindStyle(k notification.Kind) (lipgloss.AdaptiveColor, string) {
	switch k {
	case notification.KindSuccess:
		return colorSuccess, "✓"
	case notification.KindError:
		return colorError, "✗"
	case notification.KindWarning:
		return colorWarning, "!"
	default:
		return colorInfo, "i"
	}
}

// renderFields prints one "label: value" line per pair, skipping empty values.
func renderFields(w io.Writer, pairs ...string) {
	label := lipgloss.NewStyle().Foreground(colorMuted)
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", label.Render(pairs[i]+":"), pairs[i+1])
	}
	fmt.Fprint(w, b.String())
}

// renderFieldErrors prints "Field: problem" for each invalid form field.
func renderFieldErrors(w io.Writer, verrs *errors.ValidationErrors) {
	label := lipgloss.NewStyle().Foreground(colorError).Bold(true)
	var b strings.Builder
	for _, fe := range verrs.Errors {
		fmt.Fprintf(&b, "%s %s\n", label.Render("✗ "+fieldLabel(fe.Field)+":"), fe.Message)
	}
	fmt.Fprint(w, b.String())
}
