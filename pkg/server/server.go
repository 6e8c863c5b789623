// Package server exposes the skill catalog over a small JSON HTTP API: the
// catalog listing, single skills, per-skill validation and test reports, and
// trigger matching of free text against every skill's keywords.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jingkaihe/skillkit/pkg/catalog"
	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/jingkaihe/skillkit/pkg/triggers"
	"github.com/jingkaihe/skillkit/pkg/version"
)

const maxMatchBody = 1 << 20

// Server serves the skill API
type Server struct {
	router    *mux.Router
	discovery *skills.Discovery
	validator *skills.Validator
	config    *ServerConfig
	server    *http.Server
}

// ServerConfig holds the configuration for the API server
type ServerConfig struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Address returns the host:port the server listens on.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewServer creates a new API server over the given discovery and validator
func NewServer(config *ServerConfig, discovery *skills.Discovery, validator *skills.Validator) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}
	if discovery == nil {
		return nil, errors.New("discovery is required")
	}
	if validator == nil {
		validator = skills.NewValidator()
	}

	s := &Server{
		router:    mux.NewRouter(),
		discovery: discovery,
		validator: validator,
		config:    config,
	}
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills/{name}", s.handleGetSkill).Methods("GET")
	api.HandleFunc("/skills/{name}/validation", s.handleValidateSkill).Methods("GET")
	api.HandleFunc("/skills/{name}/tests", s.handleTestSkill).Methods("GET")
	api.HandleFunc("/match", s.handleMatch).Methods("POST", "OPTIONS")
	api.HandleFunc("/version", s.handleVersion).Methods("GET")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

// Handler returns the traced HTTP handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "skillkit.api")
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		w.Header().Set("Server", version.UserAgent())
		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// SkillsResponse is the body of GET /api/skills
type SkillsResponse struct {
	Skills  []catalog.Entry `json:"skills"`
	Domains []string        `json:"domains"`
	Total   int             `json:"total"`
}

// SkillResponse is the body of GET /api/skills/{name}
type SkillResponse struct {
	catalog.Entry
	Body   string             `json:"body"`
	Issues []frontmatterIssue `json:"issues,omitempty"`
	Raw    map[string]any     `json:"frontmatter"`
}

type frontmatterIssue struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// MatchRequest is the body of POST /api/match
type MatchRequest struct {
	Text string `json:"text"`
}

// Match is one skill whose keywords occur in the request text
type Match struct {
	Skill    string   `json:"skill"`
	Folder   string   `json:"folder"`
	Keywords []string `json:"keywords"`
}

// MatchResponse is the body of POST /api/match
type MatchResponse struct {
	Text    string  `json:"text"`
	Matches []Match `json:"matches"`
}

func (s *Server) entries(ctx context.Context) ([]catalog.Entry, error) {
	loaded, err := s.discovery.LoadSkills(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.FromSkills(ctx, loaded, s.validator.NamePrefix()), nil
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := s.entries(ctx)
	if err != nil {
		s.writeErrorResponse(ctx, w, http.StatusInternalServerError, "failed to load skills", err)
		return
	}

	c := catalog.New(entries, time.Now())
	query := r.URL.Query()

	filtered := make([]catalog.Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		if domain := query.Get("domain"); domain != "" && e.Domain != domain {
			continue
		}
		if tag := query.Get("tag"); tag != "" && !hasTag(e, tag) {
			continue
		}
		filtered = append(filtered, e)
	}

	s.writeJSONResponse(ctx, w, SkillsResponse{
		Skills:  filtered,
		Domains: c.Domains(),
		Total:   len(filtered),
	})
}

func hasTag(e catalog.Entry, tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (s *Server) skill(w http.ResponseWriter, r *http.Request) (*skills.Skill, bool) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	skill, err := s.discovery.GetSkill(ctx, name)
	if err != nil {
		s.writeErrorResponse(ctx, w, http.StatusNotFound, "skill not found", err)
		return nil, false
	}
	return skill, true
}

// folder resolves a skill folder by name without parsing its SKILL.md, so
// broken or missing documents can still be diagnosed.
func (s *Server) folder(w http.ResponseWriter, r *http.Request) (skills.Folder, bool) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	folders, err := s.discovery.Folders(ctx)
	if err != nil {
		s.writeErrorResponse(ctx, w, http.StatusInternalServerError, "failed to list skills", err)
		return skills.Folder{}, false
	}
	for _, f := range folders {
		if f.ID == name {
			return f, true
		}
	}

	s.writeErrorResponse(ctx, w, http.StatusNotFound, "skill not found", errors.Errorf("skill '%s' not found", name))
	return skills.Folder{}, false
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	skill, ok := s.skill(w, r)
	if !ok {
		return
	}

	entry, err := catalog.FromRecord(skill.ID, s.validator.NamePrefix(), skill.Header.Record)
	if err != nil {
		s.writeErrorResponse(ctx, w, http.StatusUnprocessableEntity, "failed to decode frontmatter", err)
		return
	}

	issues := make([]frontmatterIssue, 0, len(skill.Header.Issues))
	for _, i := range skill.Header.Issues {
		issues = append(issues, frontmatterIssue{Line: i.Line, Text: i.Text, Reason: i.Reason})
	}

	s.writeJSONResponse(ctx, w, SkillResponse{
		Entry:  entry,
		Body:   skill.Header.Body,
		Issues: issues,
		Raw:    skill.Header.Record.Plain(),
	})
}

func (s *Server) handleValidateSkill(w http.ResponseWriter, r *http.Request) {
	f, ok := s.folder(w, r)
	if !ok {
		return
	}
	s.writeJSONResponse(r.Context(), w, s.validator.ValidateFile(f.ID, f.SkillPath()))
}

func (s *Server) handleTestSkill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, ok := s.folder(w, r)
	if !ok {
		return
	}

	report, err := triggers.EvaluateSkill(f.Directory)
	if err != nil {
		s.writeErrorResponse(ctx, w, http.StatusInternalServerError, "failed to evaluate skill", err)
		return
	}
	s.writeJSONResponse(ctx, w, report)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMatchBody)).Decode(&req); err != nil {
		s.writeErrorResponse(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeErrorResponse(ctx, w, http.StatusBadRequest, "text is required", nil)
		return
	}

	entries, err := s.entries(ctx)
	if err != nil {
		s.writeErrorResponse(ctx, w, http.StatusInternalServerError, "failed to load skills", err)
		return
	}

	resp := MatchResponse{Text: req.Text, Matches: make([]Match, 0)}
	for _, e := range entries {
		hits := triggers.MatchedKeywords(req.Text, e.Keywords())
		if len(hits) == 0 {
			continue
		}
		resp.Matches = append(resp.Matches, Match{Skill: e.Name, Folder: e.Folder, Keywords: hits})
	}

	s.writeJSONResponse(ctx, w, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(r.Context(), w, version.Get())
}

func (s *Server) writeJSONResponse(ctx context.Context, w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(ctx).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeErrorResponse(ctx context.Context, w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}
	if err != nil {
		logger.G(ctx).WithError(err).Debug(message)
		response["detail"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(ctx).WithError(err).Error("failed to encode error response")
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := s.config.Address()
	s.server = &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	presenter.Info(fmt.Sprintf("Serving skills API on http://%s", address))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shutdown server")
	}
	return nil
}
