package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/workflow"
)

const planColumns = `p.id, p.plan_code, p.plan_for, p.plan_period, p.plan_name, p.plan_description,
	p.site_visits, p.status, p.team_name, p.needs_attention, p.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func scanPlan(s rowScanner, extra ...any) (models.Plan, error) {
	var p models.Plan
	var id int64
	var status, createdAt string
	dest := []any{&id, &p.Code, &p.PlanFor, &p.Period, &p.Name, &p.Description,
		&p.SiteVisits, &status, &p.TeamName, &p.NeedsAttention, &createdAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return p, err
	}
	p.ID = strconv.FormatInt(id, 10)
	if strings.TrimSpace(p.Code) == "" {
		p.Code = models.FormatPlanCode(id)
	}
	if p.SiteVisits == "" {
		p.SiteVisits = "0"
	}
	p.Status = models.PlanStatus(status)
	if p.Status == "" {
		p.Status = models.StatusInProgress
	}
	p.CreatedAt = parseTimestamp(createdAt)
	return p, nil
}

// mergeSections returns the default sections in display order with tracked
// statuses applied, followed by any extra sections.
func mergeSections(tracked []models.Section) []models.Section {
	byID := make(map[string]models.Section, len(tracked))
	for _, s := range tracked {
		byID[s.ID] = s
	}
	out := models.DefaultSections()
	for i, def := range out {
		if s, ok := byID[def.ID]; ok {
			if s.Name != "" {
				out[i].Name = s.Name
			}
			if s.Status != "" {
				out[i].Status = s.Status
			}
			delete(byID, def.ID)
		}
	}
	for _, s := range tracked {
		if _, ok := byID[s.ID]; ok {
			out = append(out, s)
		}
	}
	return out
}

// ListPlans returns every plan ordered by id. When username is set, each
// plan carries that user's last access time.
func (db *DB) ListPlans(username string) ([]models.Plan, error) {
	username = strings.TrimSpace(username)
	var rows *sql.Rows
	var err error
	if username != "" {
		rows, err = db.conn.Query(`SELECT `+planColumns+`, COALESCE(a.last_accessed_at, '')
			FROM svp_plans p
			LEFT JOIN svp_plan_access a ON a.plan_id = p.id AND a.username = ?
			ORDER BY p.id`, username)
	} else {
		rows, err = db.conn.Query(`SELECT ` + planColumns + `, '' FROM svp_plans p ORDER BY p.id`)
	}
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	var plans []models.Plan
	for rows.Next() {
		var accessed string
		p, err := scanPlan(rows, &accessed)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		if accessed != "" {
			t := parseTimestamp(accessed)
			p.LastAccessedAt = &t
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	sections, err := db.allSections()
	if err != nil {
		return nil, err
	}
	for i := range plans {
		plans[i].Sections = mergeSections(sections[plans[i].ID])
	}
	return plans, nil
}

func (db *DB) allSections() (map[string][]models.Section, error) {
	rows, err := db.conn.Query(`SELECT plan_id, section_id, name, status FROM svp_plan_sections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.Section)
	for rows.Next() {
		var planID int64
		var s models.Section
		var status string
		if err := rows.Scan(&planID, &s.ID, &s.Name, &status); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		s.Status = models.PlanStatus(status)
		key := strconv.FormatInt(planID, 10)
		out[key] = append(out[key], s)
	}
	return out, rows.Err()
}

func planSections(q querier, planID int64) ([]models.Section, error) {
	rows, err := q.Query(`SELECT section_id, name, status FROM svp_plan_sections WHERE plan_id = ? ORDER BY id`, planID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var out []models.Section
	for rows.Next() {
		var s models.Section
		var status string
		if err := rows.Scan(&s.ID, &s.Name, &status); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		s.Status = models.PlanStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// resolvePlanID maps a numeric id or a plan code to the row id
func (db *DB) resolvePlanID(idOrCode string) (int64, error) {
	idOrCode = strings.TrimSpace(idOrCode)
	if idOrCode == "" {
		return 0, ErrNotFound
	}
	var id int64
	var err error
	if n, convErr := strconv.ParseInt(idOrCode, 10, 64); convErr == nil {
		err = db.conn.QueryRow(`SELECT id FROM svp_plans WHERE id = ?`, n).Scan(&id)
	} else {
		err = db.conn.QueryRow(`SELECT id FROM svp_plans WHERE plan_code = ? COLLATE NOCASE`, idOrCode).Scan(&id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve plan %q: %w", idOrCode, err)
	}
	return id, nil
}

// GetPlan returns a plan by numeric id or plan code
func (db *DB) GetPlan(idOrCode string) (*models.Plan, error) {
	id, err := db.resolvePlanID(idOrCode)
	if err != nil {
		return nil, err
	}
	return db.getPlanByID(id)
}

func (db *DB) getPlanByID(id int64) (*models.Plan, error) {
	return loadPlan(db.conn, id)
}

func loadPlan(q querier, id int64) (*models.Plan, error) {
	row := q.QueryRow(`SELECT `+planColumns+` FROM svp_plans p WHERE p.id = ?`, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %d: %w", id, err)
	}
	tracked, err := planSections(q, id)
	if err != nil {
		return nil, err
	}
	p.Sections = mergeSections(tracked)
	return &p, nil
}

// CreatePlan inserts a new In Progress plan with the default sections
func (db *DB) CreatePlan(req models.InitiateRequest) (*models.Plan, error) {
	var id int64
	err := db.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO svp_plans
			(plan_code, plan_for, plan_period, plan_name, plan_description, site_visits, status, team_name, needs_attention, created_at)
			VALUES ('', ?, ?, ?, '', '0', ?, ?, '', ?)`,
			req.PlanFor(), req.PlanPeriod(), strings.TrimSpace(req.PlanName),
			string(models.StatusInProgress), strings.TrimSpace(req.Team), db.timestamp())
		if err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("plan id: %w", err)
		}
		if _, err := tx.Exec(`UPDATE svp_plans SET plan_code = ? WHERE id = ?`, models.FormatPlanCode(id), id); err != nil {
			return fmt.Errorf("set plan code: %w", err)
		}
		for _, s := range models.DefaultSections() {
			if _, err := tx.Exec(`INSERT INTO svp_plan_sections (plan_id, section_id, name, status) VALUES (?, ?, ?, ?)`,
				id, s.ID, s.Name, string(s.Status)); err != nil {
				return fmt.Errorf("insert section %s: %w", s.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.getPlanByID(id)
}

// UpdatePlanStatus sets the plan status. Completing a plan requires every
// section to be Complete, otherwise an *IncompleteSectionsError is returned.
// Changes outside the plan workflow fail with a *workflow.TransitionError.
func (db *DB) UpdatePlanStatus(idOrCode string, status models.PlanStatus) (*models.Plan, error) {
	id, err := db.resolvePlanID(idOrCode)
	if err != nil {
		return nil, err
	}
	err = db.withTx(func(tx *sql.Tx) error {
		plan, err := loadPlan(tx, id)
		if err != nil {
			return err
		}
		if err := workflow.DefaultMachine().Validate(workflow.NewContext(plan, status)); err != nil {
			if ge, ok := workflow.FailedGuard(err, workflow.SectionsCompleteGuardName); ok {
				return &IncompleteSectionsError{Sections: ge.Details}
			}
			return err
		}
		if _, err := tx.Exec(`UPDATE svp_plans SET status = ? WHERE id = ?`, string(status), id); err != nil {
			return fmt.Errorf("update plan status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.getPlanByID(id)
}

// CancelPlan marks a plan Canceled. Plans are never removed.
func (db *DB) CancelPlan(idOrCode string) (*models.Plan, error) {
	return db.UpdatePlanStatus(idOrCode, models.StatusCanceled)
}

// UpdateCoversheet sets the plan name and description
func (db *DB) UpdateCoversheet(idOrCode, name, description string) (*models.Plan, error) {
	id, err := db.resolvePlanID(idOrCode)
	if err != nil {
		return nil, err
	}
	if _, err := db.conn.Exec(`UPDATE svp_plans SET plan_name = ?, plan_description = ? WHERE id = ?`,
		strings.TrimSpace(name), description, id); err != nil {
		return nil, fmt.Errorf("update coversheet: %w", err)
	}
	return db.getPlanByID(id)
}

// UpdateSectionStatus sets one section's status, creating the section row
// when the plan predates section tracking. Ids outside the plan sections
// return ErrNotFound.
func (db *DB) UpdateSectionStatus(idOrCode, sectionID string, status models.PlanStatus) (*models.Plan, error) {
	sectionID = strings.TrimSpace(sectionID)
	if !models.IsSection(sectionID) {
		return nil, ErrNotFound
	}
	id, err := db.resolvePlanID(idOrCode)
	if err != nil {
		return nil, err
	}
	err = db.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE svp_plan_sections SET status = ? WHERE plan_id = ? AND section_id = ?`,
			string(status), id, sectionID)
		if err != nil {
			return fmt.Errorf("update section: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		_, err = tx.Exec(`INSERT INTO svp_plan_sections (plan_id, section_id, name, status) VALUES (?, ?, ?, ?)`,
			id, sectionID, models.SectionName(sectionID), string(status))
		if err != nil {
			return fmt.Errorf("insert section: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.getPlanByID(id)
}

// RecordAccess stores that username opened the plan now
func (db *DB) RecordAccess(username, idOrCode string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("record access: username is required")
	}
	id, err := db.resolvePlanID(idOrCode)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`INSERT INTO svp_plan_access (username, plan_id, last_accessed_at) VALUES (?, ?, ?)
		ON CONFLICT(username, plan_id) DO UPDATE SET last_accessed_at = excluded.last_accessed_at`,
		username, id, db.timestamp())
	if err != nil {
		return fmt.Errorf("record access: %w", err)
	}
	return nil
}

// insertPlan stores a fully specified plan, used by Seed
func insertPlan(tx *sql.Tx, p models.Plan, createdAt time.Time) (int64, error) {
	res, err := tx.Exec(`INSERT INTO svp_plans
		(plan_code, plan_for, plan_period, plan_name, plan_description, site_visits, status, team_name, needs_attention, created_at)
		VALUES ('', ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PlanFor, p.Period, p.Name, p.Description, p.SiteVisits, string(p.Status), p.TeamName, p.NeedsAttention,
		createdAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`UPDATE svp_plans SET plan_code = ? WHERE id = ?`, models.FormatPlanCode(id), id); err != nil {
		return 0, err
	}
	sections := mergeSections(p.Sections)
	for _, s := range sections {
		if _, err := tx.Exec(`INSERT INTO svp_plan_sections (plan_id, section_id, name, status) VALUES (?, ?, ?, ?)`,
			id, s.ID, s.Name, string(s.Status)); err != nil {
			return 0, err
		}
	}
	return id, nil
}
