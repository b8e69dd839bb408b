package model

import (
	"context"
	"slices"
	"time"
)

// SkillStatus is the progression state of a single skill for a student.
type SkillStatus string

const (
	StatusNotStarted SkillStatus = "Not Started"
	StatusInProgress SkillStatus = "In Progress"
	StatusAchieved   SkillStatus = "Achieved"
)

// Statuses lists skill statuses in progression order.
var Statuses = []SkillStatus{StatusNotStarted, StatusInProgress, StatusAchieved}

// Valid reports whether s is one of the known statuses.
func (s SkillStatus) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Step moves the status dir steps along Statuses, clamped at both ends.
// An unknown status is treated as StatusNotStarted.
func (s SkillStatus) Step(dir int) SkillStatus {
	idx := max(slices.Index(Statuses, s), 0)
	switch {
	case dir > 0:
		idx++
	case dir < 0:
		idx--
	}
	idx = min(max(idx, 0), len(Statuses)-1)
	return Statuses[idx]
}

// LogType distinguishes skill attempts from achievements.
type LogType string

const (
	LogAttempt  LogType = "attempt"
	LogAchieved LogType = "achieved"
)

// Valid reports whether t is a known log type.
func (t LogType) Valid() bool {
	return t == LogAttempt || t == LogAchieved
}

// PracticeStatus is the completion flag of a practice assignment.
type PracticeStatus string

const (
	PracticeAssigned PracticeStatus = "Assigned"
	PracticeDone     PracticeStatus = "Done"
)

// Toggle flips between assigned and done.
func (p PracticeStatus) Toggle() PracticeStatus {
	if p == PracticeDone {
		return PracticeAssigned
	}
	return PracticeDone
}

// LogItem records one attempt or achievement of a skill. Log items are never
// edited after creation.
type LogItem struct {
	ID       string  `json:"id"`
	Type     LogType `json:"type"`
	Date     string  `json:"date"`
	CohortID *string `json:"cohortId"`
	Notes    string  `json:"notes"`
}

// SkillState is a student's progress on one skill. Logs are newest first.
type SkillState struct {
	Status           SkillStatus `json:"status"`
	Logs             []LogItem   `json:"logs"`
	AchievedAt       string      `json:"achievedAt,omitempty"`
	AchievedCohortID *string     `json:"achievedCohortId,omitempty"`
}

// PracticeItem is a drill assigned to a student with a due date.
type PracticeItem struct {
	ID       string         `json:"id"`
	SkillKey string         `json:"skillKey"`
	DrillKey string         `json:"drillKey"`
	Title    string         `json:"title"`
	Due      string         `json:"due"`
	Notes    string         `json:"notes"`
	Status   PracticeStatus `json:"status"`
}

// Note is a dated free-form coach note.
type Note struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Text string `json:"text"`
}

// Student is a swimmer on the roster.
type Student struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Notes           []Note                `json:"notes"`
	Practice        []PracticeItem        `json:"practice"`
	CohortHistory   []string              `json:"cohortHistory"`
	CurrentCohortID *string               `json:"currentCohortId"`
	Skills          map[string]SkillState `json:"skills"`
}

// Level returns the student's derived level.
func (s Student) Level() Level {
	return ComputeLevel(s.Skills)
}

// InCohortHistory reports whether the student has ever been in cohort id.
func (s Student) InCohortHistory(id string) bool {
	return slices.Contains(s.CohortHistory, id)
}

// ProgramLength is the fixed duration of every cohort.
const ProgramLength = 42 * 24 * time.Hour

// Cohort is a six-week class session.
type Cohort struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewCohort builds a cohort whose end is start plus ProgramLength.
func NewCohort(id, name string, start time.Time) Cohort {
	start = start.UTC()
	return Cohort{ID: id, Name: name, Start: start, End: start.Add(ProgramLength)}
}

// StudentView pairs a student with derived values for display.
type StudentView struct {
	Student
	Level         Level `json:"level"`
	AchievedCount int   `json:"achievedCount"`
}

// NewStudentView computes the derived fields of s.
func NewStudentView(s Student) StudentView {
	return StudentView{Student: s, Level: s.Level(), AchievedCount: AchievedCount(s.Skills)}
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	BasePath     string // URL prefix for sub-path deployments (e.g. "/pool")
	Lang         string // UI language for labels
	Username     string // basic auth user name
	PasswordHash string // bcrypt hash; empty disables auth
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

// ImportRecord describes one applied import for the audit trail.
type ImportRecord struct {
	ID         int64     `json:"id"`
	Source     string    `json:"source"`
	SHA256     string    `json:"sha256"`
	Students   int       `json:"students"`
	Cohorts    int       `json:"cohorts"`
	ImportedAt time.Time `json:"importedAt"`
}
