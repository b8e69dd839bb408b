package roster

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/swimsteps/internal/model"
)

// memStorage is an in-memory Storage. Setting failOn makes Set fail for that
// key.
type memStorage struct {
	mu      sync.Mutex
	data    map[string][]byte
	failOn  string
	imports []model.ImportRecord
}

var errWrite = errors.New("disk full")

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key == m.failOn {
		return errWrite
	}
	m.data[key] = value
	return nil
}

func (m *memStorage) RecordImport(_ context.Context, rec model.ImportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports = append(m.imports, rec)
	return nil
}

func newTestService(t *testing.T, storage Storage) *Service {
	t.Helper()
	svc := NewService(newTestRules(), storage)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func TestLoadFallsBackToSample(t *testing.T) {
	svc := newTestService(t, newMemStorage())
	st := svc.State()

	require.Len(t, st.Students, 2)
	assert.Equal(t, "Lilly Johnson", st.Students[0].Name)
	assert.Len(t, st.Cohorts, 2)
	assert.Equal(t, st.Students[0].ID, st.SelectedID)
}

func TestLoadUnreadableValues(t *testing.T) {
	ms := newMemStorage()
	ms.data[KeyStudents] = []byte(`{"oops": true}`)
	ms.data[KeyCohorts] = []byte(`[]`)
	ms.data[KeySelected] = []byte(`42`)

	svc := newTestService(t, ms)
	st := svc.State()
	assert.Len(t, st.Students, 2, "students fall back to sample data")
	assert.Empty(t, st.Cohorts, "stored empty cohorts are kept")
	assert.Equal(t, st.Students[0].ID, st.SelectedID)
}

func TestLoadStoredRoster(t *testing.T) {
	ms := newMemStorage()
	ms.data[KeyStudents] = []byte(`[{"id": "a", "name": "Ann"}, {"id": "b", "name": "Ben", "skills": {"backFloat": "Achieved"}}]`)
	ms.data[KeyCohorts] = []byte(`[{"id": "c1", "name": "A", "start": "2024-06-01T00:00:00Z", "end": "2024-07-13T00:00:00Z"}]`)
	ms.data[KeySelected] = []byte(`"b"`)

	svc := newTestService(t, ms)
	st := svc.State()
	require.Len(t, st.Students, 2)
	assert.Equal(t, "b", st.SelectedID)
	s, _ := st.Student("b")
	assert.Equal(t, model.StatusAchieved, s.Skills["backFloat"].Status)
	assertWellFormed(t, svc.Rules().Catalog(), s)

	ms.data[KeySelected] = []byte(`"gone"`)
	require.NoError(t, svc.Load(context.Background()))
	assert.Equal(t, "a", svc.State().SelectedID)
}

func TestApplyPersistsAllKeys(t *testing.T) {
	ms := newMemStorage()
	svc := newTestService(t, ms)
	ctx := context.Background()

	st, err := svc.AddStudent(ctx, "Mia")
	require.NoError(t, err)

	var students []model.Student
	require.NoError(t, json.Unmarshal(ms.data[KeyStudents], &students))
	assert.Len(t, students, 3)

	var selected string
	require.NoError(t, json.Unmarshal(ms.data[KeySelected], &selected))
	assert.Equal(t, st.SelectedID, selected)
	assert.Equal(t, "Mia", students[2].Name)

	var cohorts []model.Cohort
	require.NoError(t, json.Unmarshal(ms.data[KeyCohorts], &cohorts))
	assert.Len(t, cohorts, 2)
}

func TestApplyRejectedIntent(t *testing.T) {
	ms := newMemStorage()
	svc := newTestService(t, ms)
	before := svc.State()

	_, err := svc.StepSkillStatus(context.Background(), "nope", "backFloat", 1)
	assert.ErrorIs(t, err, ErrStudentNotFound)
	assert.Equal(t, before, svc.State())
	assert.Empty(t, ms.data, "nothing written")
}

func TestApplyRollsBackOnWriteFailure(t *testing.T) {
	ms := newMemStorage()
	svc := newTestService(t, ms)
	ctx := context.Background()

	_, err := svc.AddNote(ctx, svc.State().SelectedID, "saved")
	require.NoError(t, err)
	before := svc.State()
	savedStudents := ms.data[KeyStudents]

	ms.failOn = KeyCohorts
	_, err = svc.AddStudent(ctx, "Lost")
	require.ErrorIs(t, err, errWrite)

	assert.Equal(t, before, svc.State())
	assert.JSONEq(t, string(savedStudents), string(ms.data[KeyStudents]), "students restored")
}

func TestServiceIntents(t *testing.T) {
	svc := newTestService(t, newMemStorage())
	ctx := context.Background()
	id := svc.State().Students[1].ID
	cohortID := svc.State().Cohorts[0].ID

	_, err := svc.Select(ctx, id)
	require.NoError(t, err)
	_, err = svc.SetStudentCohort(ctx, id, cohortID)
	require.NoError(t, err)
	_, err = svc.AddSkillLog(ctx, id, "treading", LogInput{Type: model.LogAchieved})
	require.NoError(t, err)
	_, err = svc.StepSkillStatus(ctx, id, "breaststroke", 1)
	require.NoError(t, err)
	st, err := svc.AddPractice(ctx, id, PracticeInput{SkillKey: "backFloat", DrillKey: "ear-water"})
	require.NoError(t, err)

	s, _ := st.Student(id)
	require.Len(t, s.Practice, 1)
	_, err = svc.TogglePractice(ctx, id, s.Practice[0].ID)
	require.NoError(t, err)
	_, err = svc.RemovePractice(ctx, id, s.Practice[0].ID)
	require.NoError(t, err)

	st, err = svc.AddNote(ctx, id, "good day")
	require.NoError(t, err)
	s, _ = st.Student(id)
	_, err = svc.RemoveNote(ctx, id, s.Notes[0].ID)
	require.NoError(t, err)

	st, err = svc.AddCohort(ctx, "Fall", "2024-09-01")
	require.NoError(t, err)
	assert.Len(t, st.Cohorts, 3)
	st, err = svc.RemoveCohort(ctx, cohortID)
	require.NoError(t, err)
	assert.Len(t, st.Cohorts, 2)

	s, _ = st.Student(id)
	assert.Equal(t, id, st.SelectedID)
	assert.Nil(t, s.CurrentCohortID)
	assert.Contains(t, s.CohortHistory, cohortID)
	assert.Equal(t, model.StatusAchieved, s.Skills["treading"].Status)
	assert.Equal(t, cohortID, *s.Skills["treading"].AchievedCohortID)
	assert.Equal(t, model.StatusInProgress, s.Skills["breaststroke"].Status)
	assert.Empty(t, s.Practice)
	assert.Empty(t, s.Notes)

	st, err = svc.RemoveStudent(ctx, id)
	require.NoError(t, err)
	assert.Len(t, st.Students, 1)
	assert.Equal(t, st.Students[0].ID, st.SelectedID)
}

func TestImport(t *testing.T) {
	ms := newMemStorage()
	svc := newTestService(t, ms)
	ctx := context.Background()
	cohorts := svc.State().Cohorts

	res, err := svc.Import(ctx, "upload.json", []byte(`{"students": [{"name": "X"}]}`))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Students: 1, Cohorts: 2, Replaced: true}, res)

	st := svc.State()
	require.Len(t, st.Students, 1)
	assert.Equal(t, "X", st.Students[0].Name)
	assert.Equal(t, st.Students[0].ID, st.SelectedID)
	assert.Equal(t, cohorts, st.Cohorts)

	require.Len(t, ms.imports, 1)
	assert.Equal(t, "upload.json", ms.imports[0].Source)
	assert.Equal(t, 1, ms.imports[0].Students)
	assert.Len(t, ms.imports[0].SHA256, 64)
}

func TestImportMalformedLeavesStateUnchanged(t *testing.T) {
	ms := newMemStorage()
	svc := newTestService(t, ms)
	before := svc.State()

	_, err := svc.Import(context.Background(), "bad.json", []byte(`{"students": "nope"`))
	assert.ErrorIs(t, err, ErrMalformedImport)
	assert.Equal(t, before, svc.State())
	assert.Empty(t, ms.data)
	assert.Empty(t, ms.imports)
}

func TestExportVerbatim(t *testing.T) {
	ms := newMemStorage()
	ms.data[KeyStudents] = []byte(`[{"id":"a","name":"Ann","extra":"kept"}]`)
	ms.data[KeyCohorts] = []byte(`[ ]`)
	svc := newTestService(t, ms)

	out, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"students":[{"id":"a","name":"Ann","extra":"kept"}],"cohorts":[ ]}`+"\n", string(out))
}

func TestExportBeforeFirstWrite(t *testing.T) {
	svc := newTestService(t, newMemStorage())

	out, err := svc.Export(context.Background())
	require.NoError(t, err)

	var doc struct {
		Students []model.Student `json:"students"`
		Cohorts  []model.Cohort  `json:"cohorts"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Len(t, doc.Students, 2)
	assert.Len(t, doc.Cohorts, 2)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestService(t, newMemStorage())
	id := src.State().SelectedID
	_, err := src.AddSkillLog(ctx, id, "backFloat", LogInput{Type: model.LogAchieved, Date: "2024-06-05"})
	require.NoError(t, err)
	_, err = src.AddNote(ctx, id, "floats alone")
	require.NoError(t, err)

	out, err := src.Export(ctx)
	require.NoError(t, err)

	dst := newTestService(t, newMemStorage())
	_, err = dst.Import(ctx, "export.json", out)
	require.NoError(t, err)

	assert.Equal(t, src.State().Students, dst.State().Students)
	assert.Len(t, dst.State().Cohorts, len(src.State().Cohorts))
	for i, c := range src.State().Cohorts {
		got := dst.State().Cohorts[i]
		assert.Equal(t, c.ID, got.ID)
		assert.True(t, c.Start.Equal(got.Start))
		assert.True(t, c.End.Equal(got.End))
	}
}
