package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/swimsteps/internal/handler/views"
	"github.com/pavelanni/swimsteps/internal/model"
	"github.com/pavelanni/swimsteps/internal/roster"
)

// ImportLister lists the import audit trail.
type ImportLister interface {
	ListImports(ctx context.Context) ([]model.ImportRecord, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	svc     *roster.Service
	imports ImportLister
	config  model.AppConfig
}

// New creates a new Handler. imports may be nil.
func New(svc *roster.Service, imports ImportLister, cfg model.AppConfig) *Handler {
	return &Handler{svc: svc, imports: imports, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.basicAuth)

		r.Get("/", h.handleRosterPage)

		r.Route("/api", func(r chi.Router) {
			r.Get("/state", h.handleState)
			r.Get("/catalog", h.handleCatalog)
			r.Get("/export", h.handleExport)
			r.Post("/import", h.handleImport)
			r.Get("/imports", h.handleListImports)

			r.Get("/students", h.handleListStudents)
			r.Post("/students", h.handleAddStudent)
			r.Route("/students/{studentID}", func(r chi.Router) {
				r.Get("/", h.handleGetStudent)
				r.Delete("/", h.handleRemoveStudent)
				r.Post("/select", h.handleSelectStudent)
				r.Put("/cohort", h.handleSetCohort)
				r.Post("/skills/{skillKey}/step", h.handleStepSkill)
				r.Post("/skills/{skillKey}/logs", h.handleAddLog)
				r.Post("/practice", h.handleAddPractice)
				r.Post("/practice/{practiceID}/toggle", h.handleTogglePractice)
				r.Delete("/practice/{practiceID}", h.handleRemovePractice)
				r.Post("/notes", h.handleAddNote)
				r.Delete("/notes/{noteID}", h.handleRemoveNote)
			})

			r.Get("/cohorts", h.handleListCohorts)
			r.Post("/cohorts", h.handleAddCohort)
			r.Delete("/cohorts/{cohortID}", h.handleRemoveCohort)
		})
	})
}

// handleRosterPage renders the overview. ?student= shows a student without
// changing the stored selection. ?q= filters the list; when the shown student
// is filtered out, the first match is shown instead.
func (h *Handler) handleRosterPage(w http.ResponseWriter, r *http.Request) {
	st := h.svc.State()
	q := r.URL.Query().Get("q")

	data := views.RosterPageData{
		Catalog:  h.svc.Rules().Catalog(),
		Students: st.Search(q),
		Cohorts:  st.Cohorts,
		Query:    q,
	}
	id := r.URL.Query().Get("student")
	if id == "" {
		id = st.SelectedID
	}
	if q != "" && !slices.ContainsFunc(data.Students, func(s model.Student) bool { return s.ID == id }) {
		id = ""
		if len(data.Students) > 0 {
			id = data.Students[0].ID
		}
	}
	if s, ok := st.Student(id); ok {
		data.Selected = &s
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RosterPage(data).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
