package internal

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	datafeed "github.com/fazecat/lexipulse/Internal/database"
	"github.com/fazecat/lexipulse/Internal/logging"
	"github.com/fazecat/lexipulse/Internal/sentiment"
)

const (
	defaultTopTerms     = 10
	maxTopTerms         = 100
	defaultHistoryLimit = 50
	defaultStatsDays    = 30
)

type scoreRequest struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

type fieldScore struct {
	Raw        float64          `json:"raw"`
	Normalized float64          `json:"normalized"`
	Tokens     int              `json:"tokens"`
	Matched    []sentiment.Term `json:"matched"`
	Unknown    []string         `json:"unknown"`
}

type scoreResponse struct {
	Ticker   string          `json:"ticker"`
	Combined float64         `json:"combined"`
	Label    sentiment.Label `json:"label"`
	Title    fieldScore      `json:"title"`
	Summary  fieldScore      `json:"summary"`
	Content  *fieldScore     `json:"content,omitempty"`
}

func toFieldScore(r sentiment.Result) fieldScore {
	fs := fieldScore{
		Raw:        r.Raw,
		Normalized: r.Normalized,
		Tokens:     r.TokenCount,
		Matched:    r.Matched,
		Unknown:    r.Unknown,
	}
	if fs.Matched == nil {
		fs.Matched = []sentiment.Term{}
	}
	if fs.Unknown == nil {
		fs.Unknown = []string{}
	}
	return fs
}

// HandleScore scores an article against the live lexicon without learning
// from it.
func (api *API) HandleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title+req.Summary+req.Content) == "" {
		WriteError(w, http.StatusBadRequest, "title, summary or content is required")
		return
	}

	scored := api.Session.Scorer.ScoreArticle(req.Title, req.Summary, req.Content)
	resp := scoreResponse{
		Ticker:   api.Session.Ticker,
		Combined: scored.Combined,
		Label:    scored.Label,
		Title:    toFieldScore(scored.Title),
		Summary:  toFieldScore(scored.Summary),
	}
	if scored.Content != nil {
		content := toFieldScore(*scored.Content)
		resp.Content = &content
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (api *API) HandleTopTerms(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(r, "n", defaultTopTerms)
	if !ok || n > maxTopTerms {
		WriteError(w, http.StatusBadRequest, "n must be between 1 and 100")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": api.Session.Ticker,
		"size":   api.Session.Lexicon.Len(),
		"terms":  api.Session.Lexicon.Top(n),
	})
}

func (api *API) HandleGetTerm(w http.ResponseWriter, r *http.Request) {
	word := strings.ToLower(chi.URLParam(r, "word"))
	weight, ok := api.Session.Lexicon.Lookup(word)
	if !ok {
		WriteError(w, http.StatusNotFound, "Word not in lexicon")
		return
	}
	WriteJSON(w, http.StatusOK, sentiment.Term{Word: word, Weight: weight})
}

func (api *API) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", defaultHistoryLimit)
	if !ok {
		WriteError(w, http.StatusBadRequest, "limit must be a positive number")
		return
	}
	entries, err := api.Session.History(r.Context(), limit)
	if err != nil {
		logging.Error("history read failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to read sentiment history")
		return
	}
	if entries == nil {
		entries = []sentiment.LogEntry{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  api.Session.Ticker,
		"entries": entries,
		"count":   len(entries),
	})
}

func (api *API) HandleHistoryStats(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(r, "days", defaultStatsDays)
	if !ok {
		WriteError(w, http.StatusBadRequest, "days must be a positive number")
		return
	}
	entries, err := api.Session.History(r.Context(), 0)
	if err != nil {
		logging.Error("history read failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to read sentiment history")
		return
	}

	now := time.Now
	if api.Now != nil {
		now = api.Now
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": api.Session.Ticker,
		"days":   days,
		"stats":  datafeed.Stats(entries, days, now()),
	})
}

// intParam reads a positive integer query parameter, falling back to def
// when it is absent.
func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
