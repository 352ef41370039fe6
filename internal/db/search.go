package db

import (
	"sort"
	"strings"

	"github.com/marcus/svp/internal/models"
)

// SearchResult holds a plan with relevance scoring for ranked search
type SearchResult struct {
	Plan       models.Plan `json:"plan"`
	Score      int         `json:"score"`       // Higher = better match (0-100)
	MatchField string      `json:"match_field"` // Primary field that matched: 'plan_code', 'plan_name', 'plan_for', 'plan_description', 'team_name'
}

// SearchPlansRanked returns plans matching query, best matches first.
// Plans that match no field are dropped.
func (db *DB) SearchPlansRanked(query, username string) ([]SearchResult, error) {
	plans, err := db.ListPlans(username)
	if err != nil {
		return nil, err
	}
	return RankPlans(plans, query), nil
}

// RankPlans scores plans against query
func RankPlans(plans []models.Plan, query string) []SearchResult {
	query = strings.TrimSpace(query)
	queryLower := strings.ToLower(query)
	results := make([]SearchResult, 0, len(plans))

	for _, plan := range plans {
		score := 0
		matchField := ""

		codeLower := strings.ToLower(plan.Code)
		nameLower := strings.ToLower(plan.Name)

		// Score by match quality (highest wins)
		if strings.EqualFold(plan.Code, query) || plan.ID == query {
			score = 100
			matchField = "plan_code"
		} else if strings.Contains(codeLower, queryLower) {
			score = 90
			matchField = "plan_code"
		} else if strings.EqualFold(plan.Name, query) {
			score = 80
			matchField = "plan_name"
		} else if strings.HasPrefix(nameLower, queryLower) {
			score = 70
			matchField = "plan_name"
		} else if strings.Contains(nameLower, queryLower) {
			score = 60
			matchField = "plan_name"
		} else if strings.Contains(strings.ToLower(plan.PlanFor), queryLower) {
			score = 50
			matchField = "plan_for"
		} else if strings.Contains(strings.ToLower(plan.Description), queryLower) {
			score = 40
			matchField = "plan_description"
		} else if strings.Contains(strings.ToLower(plan.TeamName), queryLower) {
			score = 20
			matchField = "team_name"
		}

		if score == 0 {
			continue
		}
		results = append(results, SearchResult{
			Plan:       plan,
			Score:      score,
			MatchField: matchField,
		})
	}

	// Sort by score DESC, then by code ASC
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Plan.Code < results[j].Plan.Code
	})

	return results
}
