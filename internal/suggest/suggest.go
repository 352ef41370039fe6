// Package suggest proposes corrections for mistyped flags and commands.
package suggest

import (
	"sort"
	"strings"

	lev "github.com/agnivade/levenshtein"
)

// maxSuggestions caps how many corrections are offered
const maxSuggestions = 3

// CommonFlagAliases maps words people reach for to the flag svp uses
var CommonFlagAliases = map[string]string{
	"state":    "--status, -s",
	"code":     "--plan",
	"id":       "--plan",
	"name":     "--plan-name",
	"title":    "--plan-name",
	"order":    "--sort",
	"order-by": "--sort",
	"where":    "--filter, -f",
	"limit":    "--page-size",
	"per-page": "--page-size",
	"offset":   "--page",
	"force":    "(not supported - use confirmation prompt)",
	"version":  "use: svp version",
	"cancel":   "use: svp cancel <plan>",
}

// levenshtein is the case-sensitive edit distance between a and b
func levenshtein(a, b string) int {
	return lev.ComputeDistance(a, b)
}

// normalize strips leading dashes and case
func normalize(s string) string {
	return strings.ToLower(strings.TrimLeft(s, "-"))
}

type candidate struct {
	value string
	dist  int
}

// closest returns up to maxSuggestions of valid within edit distance of
// unknown, nearest first. Ties keep the order of valid.
func closest(unknown string, valid []string) []string {
	target := normalize(unknown)
	maxDist := max(3, len(target)/2)

	var matches []candidate
	for _, v := range valid {
		if d := levenshtein(target, normalize(v)); d <= maxDist {
			matches = append(matches, candidate{value: v, dist: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].dist < matches[j].dist })

	out := make([]string, 0, min(len(matches), maxSuggestions))
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.value)
	}
	return out
}

// Flag suggests valid flags close to unknown. Returned values keep the
// formatting of validFlags.
func Flag(unknown string, validFlags []string) []string {
	return closest(unknown, validFlags)
}

// Command suggests subcommand names close to unknown
func Command(unknown string, commands []string) []string {
	if strings.TrimSpace(unknown) == "" {
		return nil
	}
	return closest(unknown, commands)
}

// GetFlagHint returns the flag to use instead of a common alias, or ""
func GetFlagHint(flag string) string {
	return CommonFlagAliases[normalize(flag)]
}
