package roster

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pavelanni/swimsteps/internal/model"
)

// Storage keys. They match the keys the browser version used, so a dump of its
// local storage can be loaded as is.
const (
	KeyStudents = "swimsteps_students"
	KeyCohorts  = "swimsteps_cohorts"
	KeySelected = "swimsteps_selected"
)

// Storage is a key-value store for JSON values. Get returns nil and no error
// for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// ImportRecorder is implemented by storage backends that keep an import
// audit trail.
type ImportRecorder interface {
	RecordImport(ctx context.Context, rec model.ImportRecord) error
}

// Intent is a state transition applied through Service.Apply.
type Intent func(State) (State, error)

// Service owns the working copy of the roster. Every successful intent is
// followed by a full rewrite of all storage keys.
type Service struct {
	rules   *Rules
	storage Storage

	mu    sync.Mutex
	state State
}

// NewService creates a service with an empty state. Call Load before use.
func NewService(rules *Rules, storage Storage) *Service {
	return &Service{rules: rules, storage: storage}
}

// Rules returns the transition rules used by the service.
func (s *Service) Rules() *Rules {
	return s.rules
}

// State returns the current state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load reads the roster from storage. Missing or unparsable values fall back
// to sample data; only storage read errors are returned.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rawStudents, err := s.storage.Get(ctx, KeyStudents)
	if err != nil {
		return fmt.Errorf("read students: %w", err)
	}
	rawCohorts, err := s.storage.Get(ctx, KeyCohorts)
	if err != nil {
		return fmt.Errorf("read cohorts: %w", err)
	}
	rawSelected, err := s.storage.Get(ctx, KeySelected)
	if err != nil {
		return fmt.Errorf("read selection: %w", err)
	}

	var st State
	if rawStudents == nil {
		st.Students = s.rules.SampleStudents()
		slog.Info("no stored students, using sample data")
	} else if st.Students, err = ParseStudents(s.rules.catalog, rawStudents); err != nil {
		st.Students = s.rules.SampleStudents()
		slog.Warn("stored students unreadable, using sample data", "error", err)
	}

	if rawCohorts == nil {
		st.Cohorts = s.rules.SampleCohorts()
		slog.Info("no stored cohorts, using sample data")
	} else if st.Cohorts, err = parseCohorts(rawCohorts); err != nil {
		st.Cohorts = s.rules.SampleCohorts()
		slog.Warn("stored cohorts unreadable, using sample data", "error", err)
	}

	if rawSelected != nil {
		if err := json.Unmarshal(rawSelected, &st.SelectedID); err != nil {
			slog.Warn("stored selection unreadable, ignoring", "error", err)
		}
	}

	s.state = st.WithValidSelection()
	slog.Info("roster loaded", "students", len(s.state.Students), "cohorts", len(s.state.Cohorts))
	return nil
}

// Apply runs an intent against the current state and persists the result. On
// failure the state is unchanged and nothing is written.
func (s *Service) Apply(ctx context.Context, intent Intent) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := intent(s.state)
	if err != nil {
		return s.state, err
	}
	next = next.WithValidSelection()
	if err := s.persist(ctx, next); err != nil {
		if rerr := s.persist(ctx, s.state); rerr != nil {
			slog.Error("failed to restore previous roster", "error", rerr)
		}
		return s.state, fmt.Errorf("save roster: %w", err)
	}
	s.state = next
	return next, nil
}

func (s *Service) persist(ctx context.Context, st State) error {
	students, cohorts, err := encodeCollections(st)
	if err != nil {
		return err
	}
	var selected []byte
	if st.SelectedID == "" {
		selected = []byte("null")
	} else if selected, err = json.Marshal(st.SelectedID); err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}

	if err := s.storage.Set(ctx, KeyStudents, students); err != nil {
		return fmt.Errorf("write students: %w", err)
	}
	if err := s.storage.Set(ctx, KeyCohorts, cohorts); err != nil {
		return fmt.Errorf("write cohorts: %w", err)
	}
	if err := s.storage.Set(ctx, KeySelected, selected); err != nil {
		return fmt.Errorf("write selection: %w", err)
	}
	return nil
}

func encodeCollections(st State) (students, cohorts []byte, err error) {
	students, err = json.Marshal(nonNil(st.Students))
	if err != nil {
		return nil, nil, fmt.Errorf("encode students: %w", err)
	}
	cohorts, err = json.Marshal(nonNil(st.Cohorts))
	if err != nil {
		return nil, nil, fmt.Errorf("encode cohorts: %w", err)
	}
	return students, cohorts, nil
}

// ImportResult summarizes an applied import.
type ImportResult struct {
	Students int  `json:"students"`
	Cohorts  int  `json:"cohorts"`
	Replaced bool `json:"replaced"`
}

// Import replaces the collections present in an import document. A malformed
// document is rejected with ErrMalformedImport and changes nothing. source
// names the document for the audit trail.
func (s *Service) Import(ctx context.Context, source string, data []byte) (ImportResult, error) {
	doc, err := s.rules.ParseImport(data)
	if err != nil {
		return ImportResult{}, err
	}
	st, err := s.Apply(ctx, func(st State) (State, error) {
		return s.rules.ApplyImport(st, doc), nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{
		Students: len(st.Students),
		Cohorts:  len(st.Cohorts),
		Replaced: doc.Students != nil || doc.Cohorts != nil,
	}
	if rec, ok := s.storage.(ImportRecorder); ok {
		sum := sha256.Sum256(data)
		err := rec.RecordImport(ctx, model.ImportRecord{
			Source:   source,
			SHA256:   hex.EncodeToString(sum[:]),
			Students: len(doc.Students),
			Cohorts:  len(doc.Cohorts),
		})
		if err != nil {
			slog.Warn("failed to record import", "source", source, "error", err)
		}
	}
	slog.Info("imported roster", "source", source, "students", len(doc.Students), "cohorts", len(doc.Cohorts))
	return res, nil
}

// Export returns {"students": ..., "cohorts": ...} with the persisted values
// embedded exactly as stored. Collections never written yet, or stored values
// that are not JSON, are encoded from the current state.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.storage.Get(ctx, KeyStudents)
	if err != nil {
		return nil, fmt.Errorf("read students: %w", err)
	}
	cohorts, err := s.storage.Get(ctx, KeyCohorts)
	if err != nil {
		return nil, fmt.Errorf("read cohorts: %w", err)
	}
	if !json.Valid(students) {
		students = nil
	}
	if !json.Valid(cohorts) {
		cohorts = nil
	}
	if students == nil || cohorts == nil {
		encStudents, encCohorts, err := encodeCollections(s.state)
		if err != nil {
			return nil, err
		}
		if students == nil {
			students = encStudents
		}
		if cohorts == nil {
			cohorts = encCohorts
		}
	}
	return encodeExport(students, cohorts), nil
}
