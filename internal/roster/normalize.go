package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/pavelanni/swimsteps/internal/model"
)

const unnamedStudent = "Unnamed"

// newID generates record ids. Only uniqueness matters, never the format.
var newID = uuid.NewString

// NormalizeStudent returns a well-formed copy of s: every catalog skill is
// present, statuses are valid, sequences are non-nil and the current cohort is
// part of the history. The input is never modified. Normalizing an already
// normalized student returns an equal value.
func NormalizeStudent(cat *model.Catalog, s model.Student) model.Student {
	out := model.Student{
		ID:              s.ID,
		Name:            s.Name,
		Notes:           nonNil(s.Notes),
		Practice:        nonNil(s.Practice),
		CurrentCohortID: s.CurrentCohortID,
	}
	if out.ID == "" {
		out.ID = newID()
	}
	if out.Name == "" {
		out.Name = unnamedStudent
	}
	if out.CurrentCohortID != nil && *out.CurrentCohortID == "" {
		out.CurrentCohortID = nil
	}

	history := make([]string, 0, len(s.CohortHistory)+1)
	for _, id := range s.CohortHistory {
		if id != "" && !slices.Contains(history, id) {
			history = append(history, id)
		}
	}
	if out.CurrentCohortID != nil && !slices.Contains(history, *out.CurrentCohortID) {
		history = append(history, *out.CurrentCohortID)
	}
	out.CohortHistory = history

	skills := cat.DefaultSkillMap()
	for key, st := range s.Skills {
		skills[key] = normalizeSkill(st)
	}
	out.Skills = skills
	return out
}

func normalizeSkill(st model.SkillState) model.SkillState {
	if !st.Status.Valid() {
		st.Status = model.StatusNotStarted
	}
	st.Logs = nonNil(st.Logs)
	if st.AchievedCohortID != nil && *st.AchievedCohortID == "" {
		st.AchievedCohortID = nil
	}
	return st
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ParseStudents decodes a persisted or imported student array. Each element is
// parsed leniently with ParseStudent; only a value that is not a JSON array is
// an error.
func ParseStudents(cat *model.Catalog, data []byte) ([]model.Student, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}
	if elems == nil {
		return nil, fmt.Errorf("decode students: not an array")
	}
	students := make([]model.Student, 0, len(elems))
	for _, raw := range elems {
		students = append(students, ParseStudent(cat, raw))
	}
	return students, nil
}

// ParseStudent turns any JSON value into a normalized student. Fields of the
// wrong type fall back to their defaults and malformed sequence elements are
// dropped; parsing never fails.
func ParseStudent(cat *model.Catalog, data []byte) model.Student {
	fields := decodeObject(data)
	s := model.Student{
		ID:              decodeString(fields["id"]),
		Name:            decodeString(fields["name"]),
		Notes:           decodeEach(fields["notes"], decodeNote),
		Practice:        decodeEach(fields["practice"], decodePractice),
		CohortHistory:   decodeEach(fields["cohortHistory"], decodeHistoryEntry),
		CurrentCohortID: decodeOptionalString(fields["currentCohortId"]),
	}
	skillFields := decodeObject(fields["skills"])
	if len(skillFields) > 0 {
		s.Skills = make(map[string]model.SkillState, len(skillFields))
		for key, raw := range skillFields {
			s.Skills[key] = decodeSkill(raw)
		}
	}
	return NormalizeStudent(cat, s)
}

// decodeSkill accepts null, a bare status string, or a skill object.
func decodeSkill(data json.RawMessage) model.SkillState {
	data = bytes.TrimSpace(data)
	st := model.SkillState{Status: model.StatusNotStarted}
	if len(data) == 0 {
		return st
	}
	switch data[0] {
	case '"':
		st.Status = model.SkillStatus(decodeString(data))
	case '{':
		fields := decodeObject(data)
		st.Status = model.SkillStatus(decodeString(fields["status"]))
		st.Logs = decodeEach(fields["logs"], decodeLog)
		st.AchievedAt = decodeString(fields["achievedAt"])
		st.AchievedCohortID = decodeOptionalString(fields["achievedCohortId"])
	}
	return normalizeSkill(st)
}

func decodeLog(data json.RawMessage) (model.LogItem, bool) {
	fields := decodeObject(data)
	if fields == nil {
		return model.LogItem{}, false
	}
	item := model.LogItem{
		ID:       decodeString(fields["id"]),
		Type:     model.LogType(decodeString(fields["type"])),
		Date:     decodeString(fields["date"]),
		CohortID: decodeOptionalString(fields["cohortId"]),
		Notes:    decodeString(fields["notes"]),
	}
	if !item.Type.Valid() {
		return model.LogItem{}, false
	}
	if item.ID == "" {
		item.ID = newID()
	}
	if item.CohortID != nil && *item.CohortID == "" {
		item.CohortID = nil
	}
	return item, true
}

func decodeNote(data json.RawMessage) (model.Note, bool) {
	fields := decodeObject(data)
	if fields == nil {
		return model.Note{}, false
	}
	n := model.Note{
		ID:   decodeString(fields["id"]),
		Date: decodeString(fields["date"]),
		Text: decodeString(fields["text"]),
	}
	if n.ID == "" {
		n.ID = newID()
	}
	return n, true
}

func decodePractice(data json.RawMessage) (model.PracticeItem, bool) {
	fields := decodeObject(data)
	if fields == nil {
		return model.PracticeItem{}, false
	}
	p := model.PracticeItem{
		ID:       decodeString(fields["id"]),
		SkillKey: decodeString(fields["skillKey"]),
		DrillKey: decodeString(fields["drillKey"]),
		Title:    decodeString(fields["title"]),
		Due:      decodeString(fields["due"]),
		Notes:    decodeString(fields["notes"]),
		Status:   model.PracticeStatus(decodeString(fields["status"])),
	}
	if p.ID == "" {
		p.ID = newID()
	}
	if p.Status != model.PracticeDone {
		p.Status = model.PracticeAssigned
	}
	return p, true
}

func decodeHistoryEntry(data json.RawMessage) (string, bool) {
	id := decodeString(data)
	return id, id != ""
}

// decodeObject returns the members of a JSON object, or nil for any other value.
func decodeObject(data json.RawMessage) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	return fields
}

// decodeString returns the string value of data, or "" for any other value.
func decodeString(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s
}

func decodeOptionalString(data json.RawMessage) *string {
	s := decodeString(data)
	if s == "" {
		return nil
	}
	return &s
}

// decodeEach decodes a JSON array element by element, keeping the elements fn
// accepts. A value that is not an array yields an empty slice.
func decodeEach[T any](data json.RawMessage, fn func(json.RawMessage) (T, bool)) []T {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return []T{}
	}
	out := make([]T, 0, len(elems))
	for _, raw := range elems {
		if v, ok := fn(raw); ok {
			out = append(out, v)
		}
	}
	return out
}
