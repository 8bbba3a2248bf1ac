package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decode reads a JSON request body into v, answering 400 or 413 on failure
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

type parseRequest struct {
	Text            string `json:"text"`
	Paragraphs      bool   `json:"paragraphs"`
	SignatureBlocks bool   `json:"signature_blocks"`
}

// Parse handles POST /api/parse
func (s *Server) Parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.parser.Analyze(req.Text, req.Paragraphs, req.SignatureBlocks))
}

type threadRequest struct {
	Text    string `json:"text"`
	Subject string `json:"subject"`
}

// Thread handles POST /api/thread
func (s *Server) Thread(w http.ResponseWriter, r *http.Request) {
	var req threadRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.parser.ParseThreadResult(req.Text, req.Subject))
}

type listResponse struct {
	Items []string `json:"items"`
}

// Paragraphs handles POST /api/paragraphs
func (s *Server) Paragraphs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	items := slices.Collect(s.parser.Paragraphs(req.Text))
	if items == nil {
		items = []string{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items})
}

// Signature handles POST /api/signature
func (s *Server) Signature(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Signature string `json:"signature"`
	}
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: mailparse.FormatSignature(req.Signature)})
}

// ListActivities handles GET /api/activities
func (s *Server) ListActivities(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "no activity store configured")
		return
	}

	q := r.URL.Query()
	opts := database.ListOptions{Query: q.Get("q"), Limit: defaultListLimit}

	if src := q.Get("source"); src != "" && src != "all" {
		source := database.Source(src)
		opts.Source = &source
	}
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid "+name)
				return
			}
			*dst = n
		}
	}
	if v := q.Get("since_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			writeError(w, http.StatusBadRequest, "invalid since_days")
			return
		}
		since := time.Now().AddDate(0, 0, -days)
		opts.Since = &since
	}
	opts.Limit = min(opts.Limit, maxListLimit)

	activities, err := s.db.ListActivities(r.Context(), opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list activities")
		writeError(w, http.StatusInternalServerError, "failed to list activities")
		return
	}
	if activities == nil {
		activities = []database.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

type activityResponse struct {
	Activity *database.Activity     `json:"activity"`
	Parsed   *mailparse.Analysis     `json:"parsed,omitempty"`
	Thread   *mailparse.ThreadResult `json:"thread,omitempty"`
}

// GetActivity handles GET /api/activities/{id}. With ?rich=true the stored
// body is decomposed as a thread.
func (s *Server) GetActivity(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "no activity store configured")
		return
	}

	a, err := s.db.GetActivity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "activity not found")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load activity")
		writeError(w, http.StatusInternalServerError, "failed to load activity")
		return
	}

	resp := activityResponse{Activity: a}
	if rich, _ := strconv.ParseBool(r.URL.Query().Get("rich")); rich {
		tr := s.parser.ParseThreadResult(a.RawBody, a.SubjectOrEmpty())
		resp.Thread = &tr
	} else {
		an := s.parser.Analyze(a.RawBody, true, true)
		resp.Parsed = &an
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status string               `json:"status"`
	Cache  mailparse.CacheStats `json:"cache"`
	Store  string               `json:"store,omitempty"`
}

// Health handles GET /healthz
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Cache: s.parser.Cache().Stats()}
	status := http.StatusOK

	if s.db != nil {
		resp.Store = "ok"
		if err := s.db.Health(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Store = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}
