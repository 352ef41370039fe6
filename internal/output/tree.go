package output

import (
	"fmt"
	"strings"

	"github.com/marcus/svp/internal/models"
)

// TreeNode represents a node in a tree structure for rendering
type TreeNode struct {
	ID       string
	Title    string
	Status   models.PlanStatus
	Children []TreeNode
}

// TreeRenderOptions configures tree rendering behavior
type TreeRenderOptions struct {
	MaxDepth   int  // 0 = unlimited
	ShowStatus bool // Whether to show status indicator
	ShowID     bool
}

// statusMark returns a status indicator symbol
func statusMark(s models.PlanStatus) string {
	switch s {
	case models.StatusComplete:
		return " \u2713" // ✓
	case models.StatusInProgress:
		return " \u25cf" // ●
	case models.StatusNotComplete:
		return " \u29d7" // ⧗
	case models.StatusCanceled:
		return " \u2717" // ✗
	default:
		return ""
	}
}

// SectionNodes turns a plan's sections into tree nodes
func SectionNodes(p *models.Plan) []TreeNode {
	nodes := make([]TreeNode, len(p.Sections))
	for i, s := range p.Sections {
		nodes[i] = TreeNode{ID: s.ID, Title: s.Name, Status: s.Status}
	}
	return nodes
}

// MenuNodes turns the sidebar menu into tree nodes. Child headers become
// bracketed labels.
func MenuNodes(items []models.MenuItem) []TreeNode {
	nodes := make([]TreeNode, 0, len(items))
	for _, it := range items {
		n := TreeNode{ID: it.ID, Title: it.Label}
		for _, c := range it.Children {
			title := c.Label
			switch {
			case c.Header:
				title = "[" + c.Label + "]"
			case c.Href != "":
				title = c.Label + " -> " + c.Href
			}
			n.Children = append(n.Children, TreeNode{ID: c.ID, Title: title})
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// RenderTree renders a tree starting from a single root node
// Returns the complete tree as a string (without the root - just children)
func RenderTree(root TreeNode, opts TreeRenderOptions) string {
	lines := renderTreeNodes(root.Children, opts, 0, "")
	return strings.Join(lines, "\n")
}

// RenderTreeLines renders multiple root nodes and returns individual lines
func RenderTreeLines(roots []TreeNode, opts TreeRenderOptions) []string {
	return renderTreeNodes(roots, opts, 0, "")
}

func renderTreeNodes(nodes []TreeNode, opts TreeRenderOptions, depth int, prefix string) []string {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return nil
	}

	var lines []string

	for i, node := range nodes {
		isLast := i == len(nodes)-1

		connector := "\u251c\u2500\u2500 " // ├──
		if isLast {
			connector = "\u2514\u2500\u2500 " // └──
		}

		var parts []string
		if opts.ShowID {
			parts = append(parts, node.ID+":")
		}
		parts = append(parts, node.Title)
		line := prefix + connector + strings.Join(parts, " ")
		if opts.ShowStatus && node.Status != "" {
			line = fmt.Sprintf("%s %s%s", line, FormatStatus(node.Status), statusMark(node.Status))
		}
		lines = append(lines, line)

		childPrefix := prefix
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "\u2502   " // │
		}
		lines = append(lines, renderTreeNodes(node.Children, opts, depth+1, childPrefix)...)
	}

	return lines
}
