package monitor

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/marcus/svp/internal/models"
)

// copyToClipboard copies text to the system clipboard.
// Uses pbcopy on macOS, xclip on Linux, clip.exe on Windows.
func copyToClipboard(text string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "linux":
		// Try xclip first, fall back to xsel
		if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		} else if _, err := exec.LookPath("xsel"); err == nil {
			cmd = exec.Command("xsel", "--clipboard", "--input")
		} else {
			return fmt.Errorf("no clipboard tool found (install xclip or xsel)")
		}
	case "windows":
		cmd = exec.Command("clip.exe")
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	if _, err := stdin.Write([]byte(text)); err != nil {
		return err
	}

	if err := stdin.Close(); err != nil {
		return err
	}

	return cmd.Wait()
}

// formatPlanAsMarkdown formats a plan as markdown for clipboard.
func formatPlanAsMarkdown(plan *models.Plan) string {
	var sb strings.Builder

	// Title with code
	sb.WriteString(fmt.Sprintf("# %s\n", plan.Name))
	sb.WriteString(fmt.Sprintf("**Plan:** `%s`\n", plan.Code))

	// Metadata
	sb.WriteString(fmt.Sprintf("**Plan For:** %s | **Period:** %s | **Status:** %s\n",
		plan.PlanFor, plan.Period, plan.Status))

	if plan.TeamName != "" {
		sb.WriteString(fmt.Sprintf("**Team:** %s\n", plan.TeamName))
	}
	if plan.SiteVisits != "" {
		sb.WriteString(fmt.Sprintf("**Site Visits:** %s\n", plan.SiteVisits))
	}
	if plan.NeedsAttention != "" {
		sb.WriteString(fmt.Sprintf("**Needs Attention:** %s\n", plan.NeedsAttention))
	}

	// Description
	if plan.Description != "" {
		sb.WriteString("\n## Description\n\n")
		sb.WriteString(plan.Description)
		sb.WriteString("\n")
	}

	// Sections as a checklist
	if len(plan.Sections) > 0 {
		sb.WriteString("\n## Sections\n\n")
		for _, s := range plan.Sections {
			sb.WriteString(fmt.Sprintf("- %s %s\n", statusIcon(s.Status), s.Name))
		}
	}

	return sb.String()
}

// formatPlansAsMarkdown formats selected plans as a markdown table.
func formatPlansAsMarkdown(plans []models.Plan) string {
	var sb strings.Builder
	sb.WriteString("| Plan | Name | Plan For | Period | Status |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, p := range plans {
		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s | %s %s |\n",
			p.Code, escapeCell(p.Name), escapeCell(p.PlanFor), p.Period, statusIcon(p.Status), p.Status))
	}
	return sb.String()
}

// escapeCell keeps pipes from breaking a table row
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// statusIcon returns a status indicator for markdown.
func statusIcon(status models.PlanStatus) string {
	switch status {
	case models.StatusComplete:
		return "[x]"
	case models.StatusInProgress:
		return "[-]"
	case models.StatusNotComplete:
		return "[!]"
	case models.StatusCanceled:
		return "[~]"
	default:
		return "[ ]"
	}
}
