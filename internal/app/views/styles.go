package views

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"telebbs/internal/app/repository"
)

var (
	colorPrimary = lipgloss.Color("#5fd75f")
	colorAccent  = lipgloss.Color("#ffd75f")
	colorError   = lipgloss.Color("#ff5f5f")
	colorSelf    = lipgloss.Color("#d75fd7")
	colorOther   = lipgloss.Color("#ffaf00")
	colorMuted   = lipgloss.Color("#8a8a8a")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	helpStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	stampStyle    = lipgloss.NewStyle().Foreground(colorPrimary)
	selfStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorSelf)
	otherStyle    = lipgloss.NewStyle().Foreground(colorOther)
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorSelf)
)

const stampLayout = "2006-01-02 15:04"

func writeTitle(b *strings.Builder, title string) {
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
}

func writeOption(b *strings.Builder, label string, selected bool) {
	if selected {
		b.WriteString(selectedStyle.Render("> " + label))
	} else {
		b.WriteString("  " + label)
	}
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder, lines ...string) {
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(helpStyle.Render(line))
		b.WriteString("\n")
	}
}

func writeError(b *strings.Builder, msg string) {
	b.WriteString(errorStyle.Render(msg))
	b.WriteString("\n")
}

// writeConversation prints msgs (newest first) oldest at the top, followed by
// the prompt line holding the message being typed.
func writeConversation(b *strings.Builder, msgs []repository.Message, selfID int64, draft string) {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		author := otherStyle.Render(m.Username)
		if m.UserID == selfID {
			author = selfStyle.Render(m.Username)
		}
		fmt.Fprintf(b, "%s %s  %s\n", stampStyle.Render("["+m.CreatedAt.Local().Format(stampLayout)+"]"), author, m.Text)
	}
	b.WriteString("\n")
	b.WriteString(promptStyle.Render(">>>"))
	b.WriteString(" ")
	b.WriteString(draft)
}

func presence(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}

func memberSince(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("2006-01-02")
}
