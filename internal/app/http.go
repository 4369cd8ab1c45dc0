package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskboard/api/internal/store"
	"taskboard/api/internal/tracker"
	"taskboard/api/internal/views"
)

type HTTPServer struct {
	service    *Service
	proxy      http.Handler
	corsOrigin string
}

// NewHTTPServer wires the service and the tracker forwarding shim into one
// handler. The shim owns everything under /api/tracker/.
func NewHTTPServer(service *Service, proxyHandler http.Handler, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, proxy: proxyHandler, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/tracker/") && s.proxy != nil {
		http.StripPrefix("/api/tracker", s.proxy).ServeHTTP(w, r)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/summary" {
		writeJSON(w, http.StatusOK, s.service.Summary())
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/tasks" {
		writeJSON(w, http.StatusOK, s.service.Tasks(filterFromQuery(r)))
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/board" {
		writeJSON(w, http.StatusOK, map[string]any{"columns": s.service.Board(filterFromQuery(r))})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/workload" {
		groupBy := views.GroupBy(r.URL.Query().Get("groupBy"))
		writeJSON(w, http.StatusOK, s.service.Workload(groupBy))
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/gantt" {
		writeJSON(w, http.StatusOK, s.service.Gantt(filterFromQuery(r)))
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, s.service.Search(r.URL.Query().Get("q"), limit))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/refresh" {
		var body struct {
			Background bool `json:"background"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.Refresh(r.Context(), body.Background); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, s.service.Summary())
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/tasks" {
		var body struct {
			Summary     string `json:"summary"`
			Description string `json:"description"`
			Priority    string `json:"priority"`
			DueDate     string `json:"dueDate"`
			Department  string `json:"department"`
			BICategory  string `json:"biCategory"`
			AssigneeID  string `json:"assigneeId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		key, err := s.service.CreateTask(r.Context(), tracker.CreateIssueInput{
			Summary:     body.Summary,
			Description: body.Description,
			Priority:    body.Priority,
			DueDate:     body.DueDate,
			Department:  body.Department,
			BICategory:  body.BICategory,
			AssigneeID:  body.AssigneeID,
			ReporterID:  body.AssigneeID,
		})
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"key": key})
		return
	}

	if parts := splitPath(r.URL.Path); len(parts) >= 3 && parts[0] == "api" && parts[1] == "tasks" {
		taskID := parts[2]

		if r.Method == http.MethodGet && len(parts) == 3 {
			t, err := s.service.Task(taskID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, t)
			return
		}

		if r.Method == http.MethodPost && len(parts) == 4 && parts[3] == "update" {
			var body store.UpdateInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.UpdateTask(r.Context(), taskID, body); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

		if r.Method == http.MethodPost && len(parts) == 4 && parts[3] == "transition" {
			var body struct {
				Target string `json:"target"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.QuickTransition(r.Context(), taskID, body.Target); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

		if r.Method == http.MethodGet && len(parts) == 4 && parts[3] == "export" {
			result, err := s.service.ExportTask(taskID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			w.Header().Set("Content-Type", result.MimeType)
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(result.Data)
			return
		}
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/config" {
		writeJSON(w, http.StatusOK, s.service.Config())
		return
	}

	if r.Method == http.MethodPut && r.URL.Path == "/api/config" {
		var body ConfigPayload
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.SaveConfig(r.Context(), body.ProjectKey); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, s.service.Summary())
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/users/assignable" {
		users, err := s.service.AssignableUsers(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func filterFromQuery(r *http.Request) views.Filter {
	q := r.URL.Query()
	return views.Filter{
		Search:      q.Get("search"),
		Statuses:    q["status"],
		Priorities:  q["priority"],
		Departments: q["department"],
		StartFrom:   q.Get("startFrom"),
		StartTo:     q.Get("startTo"),
	}
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
