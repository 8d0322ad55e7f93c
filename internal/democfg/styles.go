package democfg

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// headerStyle defines the style for section headers
	headerStyle = lipgloss.NewStyle().Bold(true)

	// keyStyle defines the style for setting names (cyan)
	keyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	// valueStyle defines the style for setting values (green)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func renderSetting(key string, value any) string {
	return fmt.Sprintf("  %s: %s",
		keyStyle.Render(key),
		valueStyle.Render(fmt.Sprintf("%v", value)))
}

// String renders the configuration for terminal display.
func (c *Config) String() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Logging"))
	b.WriteString("\n")
	b.WriteString(renderSetting("level", c.LogLevel))
	b.WriteString("\n")
	b.WriteString(renderSetting("format", c.LogFormat))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Loop"))
	b.WriteString("\n")
	b.WriteString(renderSetting("iterations", c.Loop.Iterations))
	b.WriteString("\n")
	b.WriteString(renderSetting("interval", c.Loop.Interval.Duration()))
	b.WriteString("\n")
	b.WriteString(renderSetting("log_every", c.Loop.LogEvery))

	return b.String()
}
