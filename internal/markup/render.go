package markup

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/soyeahso/annobot/internal/domain"
)

// Renderer draws markup content for a terminal.
type Renderer struct {
	Bold      lipgloss.Style
	Bullet    lipgloss.Style
	Emphasis  lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Muted     lipgloss.Style
}

// NewRenderer returns a renderer with the default palette.
func NewRenderer() *Renderer {
	return &Renderer{
		Bold:      lipgloss.NewStyle().Bold(true),
		Bullet:    lipgloss.NewStyle().PaddingLeft(2),
		Emphasis:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244")),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// Render converts content to styled terminal text.
func (r *Renderer) Render(content string) string {
	lines := Parse(content)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, r.renderLine(l))
	}
	return strings.Join(out, "\n")
}

func (r *Renderer) renderLine(l Line) string {
	if l.Kind == LineEmphasis {
		return r.Emphasis.Render(l.Text())
	}

	var b strings.Builder
	for _, s := range l.Segments {
		if s.Bold {
			b.WriteString(r.Bold.Render(s.Text))
		} else {
			b.WriteString(s.Text)
		}
	}
	if l.Kind == LineBullet {
		return r.Bullet.Render(bulletPrefix + b.String())
	}
	return b.String()
}

// RenderMessage renders a message with a role header and HH:MM timestamp.
func (r *Renderer) RenderMessage(msg domain.Message) string {
	var header string
	switch msg.Role {
	case domain.RoleUser:
		header = r.User.Render("You")
	case domain.RoleAssistant:
		header = r.Assistant.Render("Assistant")
	default:
		header = r.Muted.Render(string(msg.Role))
	}
	stamp := r.Muted.Render(msg.Timestamp.Format("15:04"))
	return header + " " + stamp + "\n" + r.Render(msg.Content)
}
