package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quorum/api/internal/auth"
	"quorum/api/internal/rbac"
)

type HTTPServer struct {
	service    *Service
	jwtSecret  []byte
	corsOrigin string
}

func NewHTTPServer(service *Service, jwtSecret, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, jwtSecret: []byte(jwtSecret), corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.service.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "questions" {
		switch {
		case r.Method == http.MethodPost && len(parts) == 2:
			s.handleCreateQuestion(w, r)
			return
		case r.Method == http.MethodPost && len(parts) == 3:
			s.handleEditQuestion(w, r, parts[2])
			return
		case r.Method == http.MethodGet && len(parts) == 4:
			s.handleShowQuestion(w, r, parts[2], parts[3])
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var input CreateQuestionInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	result, err := s.service.CreateQuestion(r.Context(), s.actor(r), input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writeResult(w, r, result)
}

func (s *HTTPServer) handleEditQuestion(w http.ResponseWriter, r *http.Request, id string) {
	var input EditQuestionInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	result, err := s.service.EditQuestion(r.Context(), s.actor(r), id, input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writeResult(w, r, result)
}

func (s *HTTPServer) handleShowQuestion(w http.ResponseWriter, r *http.Request, id, slug string) {
	result, err := s.service.ShowQuestion(r.Context(), s.actor(r), id, slug)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writeResult(w, r, result)
}

// actor resolves the acting principal from the bearer token. A missing or
// invalid token yields the anonymous actor; mutations reject it downstream.
func (s *HTTPServer) actor(r *http.Request) Actor {
	token := bearerToken(r)
	if token == "" {
		return Actor{}
	}
	claims, err := auth.ParseToken(s.jwtSecret, token)
	if err != nil {
		return Actor{}
	}
	return Actor{
		ID:   claims.Subject,
		Name: claims.Name,
		Role: rbac.Normalize(claims.Role),
	}
}

func (s *HTTPServer) writeResult(w http.ResponseWriter, r *http.Request, result Result) {
	switch result.Kind {
	case ResultRedirect:
		w.Header().Set("Location", result.Location)
		status := http.StatusSeeOther
		if r.Method == http.MethodGet {
			status = http.StatusMovedPermanently
		}
		payload := map[string]any{"redirect": result.Location}
		if result.Message != "" {
			payload["message"] = result.Message
		}
		writeJSON(w, status, payload)
	case ResultInvalid:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code":   "VALIDATION_ERROR",
			"errors": result.FieldErrors,
		})
	default:
		writeJSON(w, http.StatusOK, result.View)
	}
}

func (s *HTTPServer) writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "INTERNAL", "Internal error", nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
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
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
