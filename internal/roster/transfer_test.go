package roster

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImport(t *testing.T) {
	r := newTestRules()

	tests := []struct {
		name         string
		input        string
		wantErr      bool
		wantStudents int // -1 means absent
		wantCohorts  int // -1 means absent
	}{
		{"students only", `{"students": [{"name": "X"}]}`, false, 1, -1},
		{"cohorts only", `{"cohorts": [{"id": "c1", "name": "A", "start": "2024-06-01T00:00:00Z"}]}`, false, -1, 1},
		{"both", `{"students": [], "cohorts": []}`, false, 0, 0},
		{"null members", `{"students": null, "cohorts": null}`, false, -1, -1},
		{"empty object", `{}`, false, -1, -1},
		{"comments", "{\n// exported by hand\n\"students\": [{\"name\": \"X\"},],\n}", false, 1, -1},
		{"not json", `hello`, true, 0, 0},
		{"array", `[]`, true, 0, 0},
		{"null", `null`, true, 0, 0},
		{"students not array", `{"students": {"name": "X"}}`, true, 0, 0},
		{"cohorts not array", `{"cohorts": "A"}`, true, 0, 0},
		{"cohort without start", `{"cohorts": [{"name": "A"}]}`, true, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := r.ParseImport([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedImport)
				return
			}
			require.NoError(t, err)
			if tt.wantStudents < 0 {
				assert.Nil(t, doc.Students)
			} else {
				assert.Len(t, doc.Students, tt.wantStudents)
			}
			if tt.wantCohorts < 0 {
				assert.Nil(t, doc.Cohorts)
			} else {
				assert.Len(t, doc.Cohorts, tt.wantCohorts)
			}
		})
	}
}

func TestParseImportFillsCohorts(t *testing.T) {
	r := newTestRules()
	doc, err := r.ParseImport([]byte(`{"cohorts": [{"name": "A", "start": "2024-06-01T00:00:00Z"}]}`))
	require.NoError(t, err)
	require.Len(t, doc.Cohorts, 1)

	c := doc.Cohorts[0]
	assert.NotEmpty(t, c.ID)
	assert.True(t, c.End.Equal(time.Date(2024, 7, 13, 0, 0, 0, 0, time.UTC)), "end %v", c.End)
}

func TestApplyImport(t *testing.T) {
	r := newTestRules()
	st := testState(t, r)
	cohorts := st.Cohorts

	doc, err := r.ParseImport([]byte(`{"students": [{"name": "X"}]}`))
	require.NoError(t, err)
	next := r.ApplyImport(st, doc)

	require.Len(t, next.Students, 1)
	assert.Equal(t, "X", next.Students[0].Name)
	assert.Equal(t, next.Students[0].ID, next.SelectedID)
	assert.Equal(t, cohorts, next.Cohorts)
	assertWellFormed(t, r.Catalog(), next.Students[0])

	// The input state is unchanged.
	assert.Len(t, st.Students, 2)
}

func TestEncodeExport(t *testing.T) {
	students := []byte(`[ {"name":  "kept as is"} ]`)
	cohorts := []byte(`[]`)
	out := encodeExport(students, cohorts)

	assert.Equal(t, `{"students":[ {"name":  "kept as is"} ],"cohorts":[]}`+"\n", string(out))
	assert.True(t, json.Valid(out))
}
