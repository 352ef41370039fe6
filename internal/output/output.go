// Package output formats CLI messages and plan data for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/svp/internal/models"
)

// Writers used by the message helpers. Tests swap them.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle  = lipgloss.NewStyle().Bold(true)

	statusStyles = map[models.PlanStatus]lipgloss.Style{
		models.StatusComplete:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusInProgress:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		models.StatusNotStarted:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		models.StatusNotComplete: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusCanceled:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Error prints an error line to stderr
func Error(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "%s %s\n", errorStyle.Render("ERROR:"), fmt.Sprintf(format, args...))
}

// Warning prints a warning line to stderr
func Warning(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "%s %s\n", warningStyle.Render("WARNING:"), fmt.Sprintf(format, args...))
}

// Success prints a confirmation line to stdout
func Success(format string, args ...interface{}) {
	fmt.Fprintln(stdout, successStyle.Render(fmt.Sprintf(format, args...)))
}

// Info prints a plain line to stdout
func Info(format string, args ...interface{}) {
	fmt.Fprintf(stdout, format+"\n", args...)
}

// JSON writes v as indented JSON to stdout
func JSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// JSONError writes a machine-readable error object to stdout
func JSONError(code, message string) {
	_ = JSON(map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
}

// FormatStatus renders a plan status in brackets, colored by state
func FormatStatus(s models.PlanStatus) string {
	label := "[" + string(s) + "]"
	if st, ok := statusStyles[s]; ok {
		return st.Render(label)
	}
	return label
}

// FormatTimeAgo renders t relative to now, e.g. "3h ago"
func FormatTimeAgo(t time.Time) string {
	return formatTimeAgo(t, time.Now())
}

func formatTimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// FormatPlanShort renders a one-line plan summary
func FormatPlanShort(p *models.Plan) string {
	return fmt.Sprintf("%s %s %s %s", p.Code, p.Name, FormatStatus(p.Status), dimStyle.Render(p.Period))
}

// FormatPlanLong renders the multi-line plan view used by svp show
func FormatPlanLong(p *models.Plan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", headerStyle.Render(p.Code+":"), p.Name)
	fmt.Fprintf(&sb, "Status: %s\n", FormatStatus(p.Status))
	fmt.Fprintf(&sb, "Plan For: %s\n", p.PlanFor)
	fmt.Fprintf(&sb, "Plan Period: %s\n", p.Period)
	if p.TeamName != "" {
		fmt.Fprintf(&sb, "Team: %s\n", p.TeamName)
	}
	if p.SiteVisits != "" {
		fmt.Fprintf(&sb, "Site Visits: %s\n", p.SiteVisits)
	}
	if p.NeedsAttention != "" {
		fmt.Fprintf(&sb, "Needs Attention: %s\n", p.NeedsAttention)
	}
	fmt.Fprintf(&sb, "Created: %s\n", FormatTimeAgo(p.CreatedAt))
	if p.LastAccessedAt != nil {
		fmt.Fprintf(&sb, "Last opened: %s\n", FormatTimeAgo(*p.LastAccessedAt))
	}

	if len(p.Sections) > 0 {
		sb.WriteString("\n" + headerStyle.Render("SECTIONS") + "\n")
		for _, line := range RenderTreeLines(SectionNodes(p), TreeRenderOptions{ShowStatus: true}) {
			sb.WriteString(line + "\n")
		}
	}
	return sb.String()
}
