// Package domain holds the shared data model of putz: households, users,
// tasks, executions, accounting periods and the persisted document that
// bundles them.
package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// PeriodStatus tells callers where a period's statistics come from.
type PeriodStatus string

const (
	// StatusActive is the one open period per household. Stats are always
	// derived live from executions.
	StatusActive PeriodStatus = "active"
	// StatusArchived periods carry a frozen Summary and never change again.
	StatusArchived PeriodStatus = "archived"
	// StatusLegacy periods are closed but have no Summary (imported from an
	// older producer). Stats are derived live from the date window.
	StatusLegacy PeriodStatus = "legacy"
)

// Period is a bounded accounting range during which executions accrue points.
// EndDate is inclusive. All timestamps are UTC.
type Period struct {
	ID           string     `json:"id"`
	HouseholdID  string     `json:"wgId,omitempty"`
	Name         string     `json:"name,omitempty"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      time.Time  `json:"endDate"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	ArchivedAt   *time.Time `json:"archivedAt,omitempty"`
	TargetPoints int        `json:"targetPoints"`
	Summary      *Summary   `json:"summary,omitempty"`
}

// Status reports whether p is active, archived with a snapshot, or a legacy
// closed period without one.
func (p Period) Status() PeriodStatus {
	switch {
	case p.IsActive:
		return StatusActive
	case p.Summary != nil:
		return StatusArchived
	default:
		return StatusLegacy
	}
}

// Contains reports whether t falls within [StartDate, EndDate].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// Label returns the display name, synthesizing "DD.MM – DD.MM" when unnamed.
func (p Period) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return RangeLabel(p.StartDate, p.EndDate)
}

// RangeLabel formats a date range the way periods are labelled in the app.
func RangeLabel(start, end time.Time) string {
	return fmt.Sprintf("%s – %s", start.UTC().Format("02.01"), end.UTC().Format("02.01"))
}

// Summary is the snapshot frozen when a period is archived.
type Summary struct {
	TotalExecutions int             `json:"totalExecutions"`
	TotalPoints     int             `json:"totalPoints"`
	DistinctTasks   int             `json:"distinctTasks,omitempty"`
	Members         []MemberSummary `json:"members"`
	FrozenAt        time.Time       `json:"frozenAt"`
}

// MemberSummary is one household member's share of an archived period.
type MemberSummary struct {
	UserID      string  `json:"userId"`
	Points      int     `json:"points"`
	Executions  int     `json:"executions"`
	Achievement float64 `json:"achievement"`
}

// Execution is a single recorded completion of a task. Immutable.
type Execution struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"taskId"`
	ExecutedBy    string    `json:"executedBy"`
	ExecutedAt    time.Time `json:"executedAt"`
	PointsAwarded int       `json:"pointsAwarded"`
	PeriodID      string    `json:"periodId,omitempty"`
}

// Constraints bound how often a task should be done.
type Constraints struct {
	MinDaysBetween int `json:"minDaysBetween"`
	MaxDaysBetween int `json:"maxDaysBetween"`
}

// Task is reference data: one recurring chore of a household.
type Task struct {
	ID                 string      `json:"id"`
	WGID               string      `json:"wgId"`
	Title              string      `json:"title"`
	PointsPerExecution int         `json:"pointsPerExecution"`
	IsAlarmed          bool        `json:"isAlarmed"`
	Constraints        Constraints `json:"constraints"`
}

// User is reference data plus the running totals zeroed on a period reset.
type User struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Avatar              string `json:"avatar,omitempty"`
	TargetMonthlyPoints int    `json:"targetMonthlyPoints"`
	Points              int    `json:"points"`
	TasksCompleted      int    `json:"tasksCompleted"`
}

// Household is a WG: a group of users sharing a task and point pool.
type Household struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

// Document is the single persisted state. It is always read and written as
// a whole.
type Document struct {
	CurrentWG     string               `json:"currentWg,omitempty"`
	CurrentPeriod *Period              `json:"currentPeriod"`
	Periods       map[string][]Period  `json:"periods"`
	Executions    map[string]Execution `json:"executions"`
	Tasks         map[string]Task      `json:"tasks"`
	Users         map[string]User      `json:"users"`
	Households    map[string]Household `json:"households"`
}

// NewDocument returns an empty document with all maps allocated.
func NewDocument() *Document {
	d := &Document{}
	d.EnsureDefaults()
	return d
}

// EnsureDefaults allocates nil maps so older or partial documents behave
// like empty ones.
func (d *Document) EnsureDefaults() {
	if d.Periods == nil {
		d.Periods = map[string][]Period{}
	}
	if d.Executions == nil {
		d.Executions = map[string]Execution{}
	}
	if d.Tasks == nil {
		d.Tasks = map[string]Task{}
	}
	if d.Users == nil {
		d.Users = map[string]User{}
	}
	if d.Households == nil {
		d.Households = map[string]Household{}
	}
}

// Clone returns a deep copy via a JSON round trip.
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	out := &Document{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	out.EnsureDefaults()
	return out, nil
}

// HouseholdTasks returns the tasks that belong to wg, keyed by ID.
func (d *Document) HouseholdTasks(wg string) map[string]Task {
	out := map[string]Task{}
	for id, t := range d.Tasks {
		if t.WGID == wg {
			out[id] = t
		}
	}
	return out
}

// Members returns the users of wg in membership order. Unknown member IDs are
// skipped.
func (d *Document) Members(wg string) []User {
	hh, ok := d.Households[wg]
	if !ok {
		return nil
	}
	var users []User
	for _, id := range hh.MemberIDs {
		if u, ok := d.Users[id]; ok {
			users = append(users, u)
		}
	}
	return users
}

// HouseholdExecutions returns the live executions of wg's tasks, ordered by
// time then ID so results are stable across map iteration.
func (d *Document) HouseholdExecutions(wg string) []Execution {
	tasks := d.HouseholdTasks(wg)
	var out []Execution
	for _, e := range d.Executions {
		if _, ok := tasks[e.TaskID]; ok {
			out = append(out, e)
		}
	}
	SortExecutions(out)
	return out
}

// SortExecutions orders executions by ExecutedAt, then ID.
func SortExecutions(execs []Execution) {
	sort.SliceStable(execs, func(i, j int) bool {
		if !execs[i].ExecutedAt.Equal(execs[j].ExecutedAt) {
			return execs[i].ExecutedAt.Before(execs[j].ExecutedAt)
		}
		return execs[i].ID < execs[j].ID
	})
}
