package roster

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/pavelanni/swimsteps/internal/model"
)

// Document is a parsed import. A nil collection was absent from the input and
// leaves the current one in place.
type Document struct {
	Students []model.Student
	Cohorts  []model.Cohort
}

// ParseImport parses an import document of the form
// {"students": [...], "cohorts": [...]}. Comments and trailing commas are
// accepted. Students are normalized; cohorts must decode as cohorts.
func (r *Rules) ParseImport(data []byte) (Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &fields); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if fields == nil {
		return Document{}, fmt.Errorf("%w: not an object", ErrMalformedImport)
	}

	var doc Document
	if raw, ok := present(fields["students"]); ok {
		students, err := ParseStudents(r.catalog, raw)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
		}
		doc.Students = students
	}
	if raw, ok := present(fields["cohorts"]); ok {
		cohorts, err := parseCohorts(raw)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
		}
		doc.Cohorts = cohorts
	}
	return doc, nil
}

// ApplyImport replaces every collection present in doc.
func (r *Rules) ApplyImport(st State, doc Document) State {
	if doc.Students != nil {
		st.Students = doc.Students
	}
	if doc.Cohorts != nil {
		st.Cohorts = doc.Cohorts
	}
	return st.WithValidSelection()
}

// parseCohorts decodes a cohort array. Every cohort needs a start; cohorts
// without an id get one and cohorts without an end get the standard program
// length.
func parseCohorts(data []byte) ([]model.Cohort, error) {
	var cohorts []model.Cohort
	if err := json.Unmarshal(data, &cohorts); err != nil {
		return nil, fmt.Errorf("decode cohorts: %w", err)
	}
	if cohorts == nil {
		return nil, fmt.Errorf("decode cohorts: not an array")
	}
	for i, c := range cohorts {
		if c.Start.IsZero() {
			return nil, fmt.Errorf("cohort %d: missing start", i)
		}
		if c.ID == "" {
			c.ID = newID()
		}
		if c.End.IsZero() {
			c.End = c.Start.Add(model.ProgramLength)
		}
		cohorts[i] = c
	}
	return cohorts, nil
}

// present reports whether a document member exists and is not null.
func present(raw json.RawMessage) (json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	return raw, true
}

// encodeExport writes the export document with the collection values embedded
// byte for byte.
func encodeExport(students, cohorts []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"students":`)
	buf.Write(students)
	buf.WriteString(`,"cohorts":`)
	buf.Write(cohorts)
	buf.WriteString("}\n")
	return buf.Bytes()
}
