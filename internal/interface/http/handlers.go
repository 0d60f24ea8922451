package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Java42-DashaShamis/college-mongo/internal/application/command"
	"github.com/Java42-DashaShamis/college-mongo/internal/application/query"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "College Records API",
		"version": s.deps.Version,
		"endpoints": map[string]string{
			"health":   "/health",
			"students": "/api/v1/students",
			"subjects": "/api/v1/subjects",
			"marks":    "/api/v1/marks",
			"reports":  "/api/v1/reports",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, r, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": status.Message,
		})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAddStudent handles POST /api/v1/students
func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddStudentCommand
	if !s.decodeBody(w, r, &cmd) {
		return
	}
	st, err := s.deps.AddStudent.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, r, http.StatusCreated, st)
}

// handleAddSubject handles POST /api/v1/subjects
func (s *Server) handleAddSubject(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddSubjectCommand
	if !s.decodeBody(w, r, &cmd) {
		return
	}
	subj, err := s.deps.AddSubject.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, r, http.StatusCreated, subj)
}

// handleAddMark handles POST /api/v1/marks
func (s *Server) handleAddMark(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddMarkCommand
	if !s.decodeBody(w, r, &cmd) {
		return
	}
	mark, err := s.deps.AddMark.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, r, http.StatusCreated, mark)
}

// handleDeleteStudentsAvgMarkLess handles DELETE /api/v1/students/avg-mark-less?avgMark=
func (s *Server) handleDeleteStudentsAvgMarkLess(w http.ResponseWriter, r *http.Request) {
	avgMark, ok := s.queryInt(w, r, "avgMark")
	if !ok {
		return
	}
	res, err := s.deps.DeleteStudents.HandleAvgMarkLess(r.Context(), command.DeleteStudentsAvgMarkLessCommand{AvgMark: avgMark})
	if err != nil {
		s.writeDomainError(w, r, err, res)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleDeleteStudentsMarksCountLess handles DELETE /api/v1/students/marks-count-less?count=
func (s *Server) handleDeleteStudentsMarksCountLess(w http.ResponseWriter, r *http.Request) {
	count, ok := s.queryInt(w, r, "count")
	if !ok {
		return
	}
	res, err := s.deps.DeleteStudents.HandleMarksCountLess(r.Context(), command.DeleteStudentsMarksCountLessCommand{Count: count})
	if err != nil {
		s.writeDomainError(w, r, err, res)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// ══════════════════════════════════════════════════════════════════════════════
// POINT READ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetStudent handles GET /api/v1/students/{id}
func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	st, err := s.deps.Students.Student(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

// handleGetSubject handles GET /api/v1/subjects/{id}
func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	subj, err := s.deps.Students.Subject(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, r, http.StatusOK, subj)
}

// handleStudentsSubjectMark handles GET /api/v1/students/subject-mark?subject=&mark=
func (s *Server) handleStudentsSubjectMark(w http.ResponseWriter, r *http.Request) {
	mark, ok := s.queryInt(w, r, "mark")
	if !ok {
		return
	}
	names, err := s.deps.Students.StudentsSubjectMark(r.Context(), query.StudentsSubjectMarkQuery{
		SubjectName: r.URL.Query().Get("subject"),
		Mark:        mark,
	})
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSONList(w, r, names)
}

// handleStudentMarksSubject handles GET /api/v1/students/marks?name=&subject=
func (s *Server) handleStudentMarksSubject(w http.ResponseWriter, r *http.Request) {
	marks, err := s.deps.Students.StudentMarksSubject(r.Context(), query.StudentMarksSubjectQuery{
		Name:        r.URL.Query().Get("name"),
		SubjectName: r.URL.Query().Get("subject"),
	})
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSONList(w, r, marks)
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleBestStudents handles GET /api/v1/reports/best-students?n=
func (s *Server) handleBestStudents(w http.ResponseWriter, r *http.Request) {
	n, ok := s.queryInt(w, r, "n")
	if !ok {
		return
	}
	refs, err := s.deps.Reports.BestStudents(r.Context(), query.BestStudentsQuery{N: n})
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSONList(w, r, refs)
}

// handleGoodStudents handles GET /api/v1/reports/good-students
func (s *Server) handleGoodStudents(w http.ResponseWriter, r *http.Request) {
	refs, err := s.deps.Reports.GoodCollegeStudents(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSONList(w, r, refs)
}

// handleBestStudentsSubject handles GET /api/v1/reports/best-students-subject?n=&subject=
func (s *Server) handleBestStudentsSubject(w http.ResponseWriter, r *http.Request) {
	n, ok := s.queryInt(w, r, "n")
	if !ok {
		return
	}
	refs, err := s.deps.Reports.BestStudentsSubject(r.Context(), query.BestStudentsSubjectQuery{
		N:           n,
		SubjectName: r.URL.Query().Get("subject"),
	})
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSONList(w, r, refs)
}

// handleSubjectGreatestAvgMark handles GET /api/v1/reports/subject-greatest-avg-mark
func (s *Server) handleSubjectGreatestAvgMark(w http.ResponseWriter, r *http.Request) {
	subj, err := s.deps.Reports.SubjectGreatestAvgMark(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, r, http.StatusOK, subj)
}

// handleSubjectsAvgMarkGreater handles GET /api/v1/reports/subjects-avg-mark-greater?avgMark=
func (s *Server) handleSubjectsAvgMarkGreater(w http.ResponseWriter, r *http.Request) {
	avgMark, ok := s.queryInt(w, r, "avgMark")
	if !ok {
		return
	}
	subjects, err := s.deps.Reports.SubjectsAvgMarkGreater(r.Context(), avgMark)
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSONList(w, r, subjects)
}

// handleSubjectsAvgMarkLess handles GET /api/v1/reports/subjects-avg-mark-less?avgMark=
func (s *Server) handleSubjectsAvgMarkLess(w http.ResponseWriter, r *http.Request) {
	avgMark, ok := s.queryInt(w, r, "avgMark")
	if !ok {
		return
	}
	subjects, err := s.deps.Reports.SubjectsAvgMarkLess(r.Context(), avgMark)
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSONList(w, r, subjects)
}

// handleStudentsAllMarksSubject handles GET /api/v1/reports/students-all-marks-subject?mark=&subject=
func (s *Server) handleStudentsAllMarksSubject(w http.ResponseWriter, r *http.Request) {
	mark, ok := s.queryInt(w, r, "mark")
	if !ok {
		return
	}
	refs, err := s.deps.Reports.StudentsAllMarksSubject(r.Context(), query.StudentsAllMarksSubjectQuery{
		Mark:        mark,
		SubjectName: r.URL.Query().Get("subject"),
	})
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSONList(w, r, refs)
}

// handleStudentsMaxMarksCount handles GET /api/v1/reports/students-max-marks-count
func (s *Server) handleStudentsMaxMarksCount(w http.ResponseWriter, r *http.Request) {
	refs, err := s.deps.Reports.StudentsMaxMarksCount(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSONList(w, r, refs)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST PARSING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON body into dest, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
			return false
		}
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

// queryInt reads a required integer query parameter.
func (s *Server) queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.writeDomainError(w, r, shared.WrapError("request", "Parse", shared.ErrInvalidInput,
			fmt.Sprintf("query parameter %q must be an integer", key), err), nil)
		return 0, false
	}
	return v, true
}

// pathID reads the {id} path parameter.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeDomainError(w, r, shared.WrapError("request", "Parse", shared.ErrInvalidID,
			"id must be a positive integer", err), nil)
		return 0, false
	}
	return id, true
}
