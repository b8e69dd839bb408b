package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/swimsteps/internal/i18n"
	"github.com/pavelanni/swimsteps/internal/model"
	"github.com/pavelanni/swimsteps/internal/roster"
)

// maxImportSize caps uploaded import documents.
const maxImportSize = 10 << 20

// stateResponse is the JSON form of the roster with derived fields.
type stateResponse struct {
	Students   []model.StudentView `json:"students"`
	Cohorts    []model.Cohort      `json:"cohorts"`
	SelectedID string              `json:"selectedId"`
}

func newStateResponse(st roster.State) stateResponse {
	resp := stateResponse{
		Students:   make([]model.StudentView, 0, len(st.Students)),
		Cohorts:    st.Cohorts,
		SelectedID: st.SelectedID,
	}
	if resp.Cohorts == nil {
		resp.Cohorts = []model.Cohort{}
	}
	for _, s := range st.Students {
		resp.Students = append(resp.Students, model.NewStudentView(s))
	}
	return resp
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// errorStatus maps roster errors to an HTTP status and a message id.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, roster.ErrStudentNotFound):
		return http.StatusNotFound, "ErrStudentNotFound"
	case errors.Is(err, roster.ErrCohortNotFound):
		return http.StatusNotFound, "ErrCohortNotFound"
	case errors.Is(err, roster.ErrPracticeNotFound):
		return http.StatusNotFound, "ErrPracticeNotFound"
	case errors.Is(err, roster.ErrNoteNotFound):
		return http.StatusNotFound, "ErrNoteNotFound"
	case errors.Is(err, roster.ErrUnknownSkill):
		return http.StatusNotFound, "ErrUnknownSkill"
	case errors.Is(err, roster.ErrEmptyName):
		return http.StatusUnprocessableEntity, "ErrEmptyName"
	case errors.Is(err, roster.ErrEmptyNote):
		return http.StatusUnprocessableEntity, "ErrEmptyNote"
	case errors.Is(err, roster.ErrInvalidDate):
		return http.StatusUnprocessableEntity, "ErrInvalidDate"
	case errors.Is(err, roster.ErrInvalidLogType):
		return http.StatusUnprocessableEntity, "ErrInvalidLogType"
	case errors.Is(err, roster.ErrMalformedImport):
		return http.StatusBadRequest, "ImportFailed"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msgID := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: appI18n.T(r.Context(), msgID)})
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Debug("invalid request body", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: appI18n.T(r.Context(), "ErrInvalidRequest")})
		return false
	}
	return true
}

// respond writes the state returned by an intent, or its error.
func respond(w http.ResponseWriter, r *http.Request, st roster.State, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(h.svc.State()))
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Rules().Catalog())
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students := h.svc.State().Search(r.URL.Query().Get("q"))
	out := make([]model.StudentView, 0, len(students))
	for _, s := range students {
		out = append(out, model.NewStudentView(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.svc.State().Student(chi.URLParam(r, "studentID"))
	if !ok {
		writeError(w, r, roster.ErrStudentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, model.NewStudentView(s))
}

func (h *Handler) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.svc.AddStudent(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStateResponse(st))
}

func (h *Handler) handleRemoveStudent(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.RemoveStudent(r.Context(), chi.URLParam(r, "studentID"))
	respond(w, r, st, err)
}

func (h *Handler) handleSelectStudent(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Select(r.Context(), chi.URLParam(r, "studentID"))
	respond(w, r, st, err)
}

func (h *Handler) handleSetCohort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CohortID string `json:"cohortId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.svc.SetStudentCohort(r.Context(), chi.URLParam(r, "studentID"), req.CohortID)
	respond(w, r, st, err)
}

func (h *Handler) handleStepSkill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dir int `json:"dir"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.svc.StepSkillStatus(r.Context(), chi.URLParam(r, "studentID"), chi.URLParam(r, "skillKey"), req.Dir)
	respond(w, r, st, err)
}

func (h *Handler) handleAddLog(w http.ResponseWriter, r *http.Request) {
	var req roster.LogInput
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.svc.AddSkillLog(r.Context(), chi.URLParam(r, "studentID"), chi.URLParam(r, "skillKey"), req)
	respond(w, r, st, err)
}

func (h *Handler) handleAddPractice(w http.ResponseWriter, r *http.Request) {
	var req roster.PracticeInput
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.svc.AddPractice(r.Context(), chi.URLParam(r, "studentID"), req)
	respond(w, r, st, err)
}

func (h *Handler) handleTogglePractice(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.TogglePractice(r.Context(), chi.URLParam(r, "studentID"), chi.URLParam(r, "practiceID"))
	respond(w, r, st, err)
}

func (h *Handler) handleRemovePractice(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.RemovePractice(r.Context(), chi.URLParam(r, "studentID"), chi.URLParam(r, "practiceID"))
	respond(w, r, st, err)
}

func (h *Handler) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.svc.AddNote(r.Context(), chi.URLParam(r, "studentID"), req.Text)
	respond(w, r, st, err)
}

func (h *Handler) handleRemoveNote(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.RemoveNote(r.Context(), chi.URLParam(r, "studentID"), chi.URLParam(r, "noteID"))
	respond(w, r, st, err)
}

func (h *Handler) handleListCohorts(w http.ResponseWriter, r *http.Request) {
	cohorts := h.svc.State().Cohorts
	if cohorts == nil {
		cohorts = []model.Cohort{}
	}
	writeJSON(w, http.StatusOK, cohorts)
}

func (h *Handler) handleAddCohort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Start string `json:"start"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.svc.AddCohort(r.Context(), req.Name, req.Start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStateResponse(st))
}

func (h *Handler) handleRemoveCohort(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.RemoveCohort(r.Context(), chi.URLParam(r, "cohortID"))
	respond(w, r, st, err)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("swimsteps-export-%s.json", time.Now().UTC().Format(time.DateOnly))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

// handleImport accepts either a multipart upload in the "file" field or the
// document as the raw request body.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	source := "request body"
	var body io.Reader = r.Body
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: appI18n.T(r.Context(), "ErrInvalidRequest")})
			return
		}
		defer file.Close()
		source = header.Filename
		body = file
	}

	data, err := io.ReadAll(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: appI18n.T(r.Context(), "ErrInvalidRequest")})
		return
	}

	res, err := h.svc.Import(r.Context(), source, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleListImports(w http.ResponseWriter, r *http.Request) {
	records := []model.ImportRecord{}
	if h.imports != nil {
		list, err := h.imports.ListImports(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if list != nil {
			records = list
		}
	}
	writeJSON(w, http.StatusOK, records)
}
