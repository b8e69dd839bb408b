// Package roster holds the swim roster state and every transition on it.
//
// Transitions are pure: each takes the current State and an intent and
// returns a new State, sharing every record it did not touch. A failed
// transition returns the input state unchanged together with an error.
package roster

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/pavelanni/swimsteps/internal/model"
)

// State is the complete roster: both top-level collections plus the selected
// student. Values reachable from a State are never modified in place.
type State struct {
	Students   []model.Student `json:"students"`
	Cohorts    []model.Cohort  `json:"cohorts"`
	SelectedID string          `json:"selectedId"`
}

// Student returns the student with the given id.
func (st State) Student(id string) (model.Student, bool) {
	i := st.studentIndex(id)
	if i < 0 {
		return model.Student{}, false
	}
	return st.Students[i], true
}

// Cohort returns the cohort with the given id.
func (st State) Cohort(id string) (model.Cohort, bool) {
	i := slices.IndexFunc(st.Cohorts, func(c model.Cohort) bool { return c.ID == id })
	if i < 0 {
		return model.Cohort{}, false
	}
	return st.Cohorts[i], true
}

// Selected returns the selected student, if any.
func (st State) Selected() (model.Student, bool) {
	return st.Student(st.SelectedID)
}

// Search returns students whose name contains query, ignoring case.
func (st State) Search(query string) []model.Student {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []model.Student
	for _, s := range st.Students {
		if strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
		}
	}
	return out
}

// WithValidSelection points the selection at the first student when the
// selected id no longer exists.
func (st State) WithValidSelection() State {
	if _, ok := st.Student(st.SelectedID); ok {
		return st
	}
	st.SelectedID = ""
	if len(st.Students) > 0 {
		st.SelectedID = st.Students[0].ID
	}
	return st
}

func (st State) studentIndex(id string) int {
	return slices.IndexFunc(st.Students, func(s model.Student) bool { return s.ID == id })
}

// updateStudent replaces one student with fn's result in a copy of the
// student slice.
func (st State) updateStudent(id string, fn func(model.Student) (model.Student, error)) (State, error) {
	i := st.studentIndex(id)
	if i < 0 {
		return st, ErrStudentNotFound
	}
	next, err := fn(st.Students[i])
	if err != nil {
		return st, err
	}
	students := slices.Clone(st.Students)
	students[i] = next
	st.Students = students
	return st, nil
}

// LogInput describes a skill log entry to record.
type LogInput struct {
	Type     model.LogType `json:"type"`
	Date     string        `json:"date"`
	CohortID string        `json:"cohortId"`
	Notes    string        `json:"notes"`
}

// PracticeInput describes a practice assignment.
type PracticeInput struct {
	SkillKey string `json:"skillKey"`
	DrillKey string `json:"drillKey"`
	Due      string `json:"due"`
	Notes    string `json:"notes"`
}

// Rules applies roster transitions against a skill catalog.
type Rules struct {
	catalog *model.Catalog
	now     func() time.Time
}

// NewRules returns transition rules for the given catalog.
func NewRules(cat *model.Catalog) *Rules {
	return &Rules{catalog: cat, now: time.Now}
}

// Catalog returns the catalog the rules were built with.
func (r *Rules) Catalog() *model.Catalog {
	return r.catalog
}

func (r *Rules) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

// AddStudent appends a new student and selects it.
func (r *Rules) AddStudent(st State, name string) (State, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return st, ErrEmptyName
	}
	s := NormalizeStudent(r.catalog, model.Student{ID: newID(), Name: name})
	st.Students = append(slices.Clip(st.Students), s)
	st.SelectedID = s.ID
	return st, nil
}

// RemoveStudent deletes a student and repairs the selection.
func (r *Rules) RemoveStudent(st State, id string) (State, error) {
	i := st.studentIndex(id)
	if i < 0 {
		return st, ErrStudentNotFound
	}
	st.Students = slices.Delete(slices.Clone(st.Students), i, i+1)
	return st.WithValidSelection(), nil
}

// Select marks a student as selected.
func (r *Rules) Select(st State, id string) (State, error) {
	if _, ok := st.Student(id); !ok {
		return st, ErrStudentNotFound
	}
	st.SelectedID = id
	return st, nil
}

// StepSkillStatus moves one skill a single step along the status order,
// clamped at both ends.
func (r *Rules) StepSkillStatus(st State, studentID, skillKey string, dir int) (State, error) {
	return st.updateStudent(studentID, func(s model.Student) (model.Student, error) {
		cur, err := r.skillState(s, skillKey)
		if err != nil {
			return s, err
		}
		cur.Status = cur.Status.Step(dir)
		return withSkill(s, skillKey, cur), nil
	})
}

// AddSkillLog prepends a log entry to a skill. An achievement on a skill that
// is not yet achieved marks it achieved and stamps when and in which cohort;
// an already achieved skill keeps its original stamps.
func (r *Rules) AddSkillLog(st State, studentID, skillKey string, in LogInput) (State, error) {
	if !in.Type.Valid() {
		return st, ErrInvalidLogType
	}
	return st.updateStudent(studentID, func(s model.Student) (model.Student, error) {
		cur, err := r.skillState(s, skillKey)
		if err != nil {
			return s, err
		}
		item := model.LogItem{
			ID:       newID(),
			Type:     in.Type,
			Date:     in.Date,
			CohortID: optional(in.CohortID),
			Notes:    in.Notes,
		}
		if item.Date == "" {
			item.Date = r.timestamp()
		}
		cur.Logs = append([]model.LogItem{item}, cur.Logs...)
		if in.Type == model.LogAchieved && cur.Status != model.StatusAchieved {
			cur.Status = model.StatusAchieved
			cur.AchievedAt = item.Date
			cur.AchievedCohortID = item.CohortID
			if cur.AchievedCohortID == nil {
				cur.AchievedCohortID = s.CurrentCohortID
			}
		}
		return withSkill(s, skillKey, cur), nil
	})
}

// AddPractice prepends a practice assignment titled from the catalog.
func (r *Rules) AddPractice(st State, studentID string, in PracticeInput) (State, error) {
	return st.updateStudent(studentID, func(s model.Student) (model.Student, error) {
		item := model.PracticeItem{
			ID:       newID(),
			SkillKey: in.SkillKey,
			DrillKey: in.DrillKey,
			Title:    r.catalog.PracticeTitle(in.SkillKey, in.DrillKey),
			Due:      in.Due,
			Notes:    in.Notes,
			Status:   model.PracticeAssigned,
		}
		s.Practice = append([]model.PracticeItem{item}, s.Practice...)
		return s, nil
	})
}

// TogglePractice flips a practice item between assigned and done.
func (r *Rules) TogglePractice(st State, studentID, practiceID string) (State, error) {
	return st.updateStudent(studentID, func(s model.Student) (model.Student, error) {
		i := slices.IndexFunc(s.Practice, func(p model.PracticeItem) bool { return p.ID == practiceID })
		if i < 0 {
			return s, ErrPracticeNotFound
		}
		practice := slices.Clone(s.Practice)
		practice[i].Status = practice[i].Status.Toggle()
		s.Practice = practice
		return s, nil
	})
}

// RemovePractice deletes a practice item.
func (r *Rules) RemovePractice(st State, studentID, practiceID string) (State, error) {
	return st.updateStudent(studentID, func(s model.Student) (model.Student, error) {
		i := slices.IndexFunc(s.Practice, func(p model.PracticeItem) bool { return p.ID == practiceID })
		if i < 0 {
			return s, ErrPracticeNotFound
		}
		s.Practice = slices.Delete(slices.Clone(s.Practice), i, i+1)
		return s, nil
	})
}

// AddNote prepends a dated note.
func (r *Rules) AddNote(st State, studentID, text string) (State, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return st, ErrEmptyNote
	}
	return st.updateStudent(studentID, func(s model.Student) (model.Student, error) {
		n := model.Note{ID: newID(), Date: r.timestamp(), Text: text}
		s.Notes = append([]model.Note{n}, s.Notes...)
		return s, nil
	})
}

// RemoveNote deletes a note.
func (r *Rules) RemoveNote(st State, studentID, noteID string) (State, error) {
	return st.updateStudent(studentID, func(s model.Student) (model.Student, error) {
		i := slices.IndexFunc(s.Notes, func(n model.Note) bool { return n.ID == noteID })
		if i < 0 {
			return s, ErrNoteNotFound
		}
		s.Notes = slices.Delete(slices.Clone(s.Notes), i, i+1)
		return s, nil
	})
}

// SetStudentCohort sets the current cohort; an empty id leaves the student
// without one. The history only ever grows.
func (r *Rules) SetStudentCohort(st State, studentID, cohortID string) (State, error) {
	if cohortID != "" {
		if _, ok := st.Cohort(cohortID); !ok {
			return st, ErrCohortNotFound
		}
	}
	return st.updateStudent(studentID, func(s model.Student) (model.Student, error) {
		s.CurrentCohortID = optional(cohortID)
		if cohortID != "" && !s.InCohortHistory(cohortID) {
			s.CohortHistory = append(slices.Clip(s.CohortHistory), cohortID)
		}
		return s, nil
	})
}

// AddCohort prepends a new cohort. start accepts YYYY-MM-DD or RFC 3339; an
// empty start means today.
func (r *Rules) AddCohort(st State, name, start string) (State, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return st, ErrEmptyName
	}
	t, err := r.parseStart(start)
	if err != nil {
		return st, err
	}
	c := model.NewCohort(newID(), name, t)
	st.Cohorts = append([]model.Cohort{c}, st.Cohorts...)
	return st, nil
}

// RemoveCohort deletes a cohort. Students currently in it are left without a
// current cohort; cohort histories are kept.
func (r *Rules) RemoveCohort(st State, id string) (State, error) {
	i := slices.IndexFunc(st.Cohorts, func(c model.Cohort) bool { return c.ID == id })
	if i < 0 {
		return st, ErrCohortNotFound
	}
	st.Cohorts = slices.Delete(slices.Clone(st.Cohorts), i, i+1)

	var students []model.Student
	for j, s := range st.Students {
		if s.CurrentCohortID == nil || *s.CurrentCohortID != id {
			continue
		}
		if students == nil {
			students = slices.Clone(st.Students)
		}
		s.CurrentCohortID = nil
		students[j] = s
	}
	if students != nil {
		st.Students = students
	}
	return st, nil
}

func (r *Rules) parseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		y, m, d := r.now().UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}

// skillState returns the student's entry for key. Keys known to the catalog
// but missing on the student start as Not Started.
func (r *Rules) skillState(s model.Student, key string) (model.SkillState, error) {
	if cur, ok := s.Skills[key]; ok {
		return cur, nil
	}
	if _, ok := r.catalog.Skill(key); ok {
		return model.SkillState{Status: model.StatusNotStarted, Logs: []model.LogItem{}}, nil
	}
	return model.SkillState{}, ErrUnknownSkill
}

// withSkill returns s with a copied skill map holding st under key.
func withSkill(s model.Student, key string, st model.SkillState) model.Student {
	skills := maps.Clone(s.Skills)
	if skills == nil {
		skills = make(map[string]model.SkillState, 1)
	}
	skills[key] = st
	s.Skills = skills
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
