package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crediview/policyhub/internal/ai/quota"
	appanalysis "github.com/crediview/policyhub/internal/application/analysis"
	appauth "github.com/crediview/policyhub/internal/application/auth"
	apppolicies "github.com/crediview/policyhub/internal/application/policies"
	domanalysis "github.com/crediview/policyhub/internal/domain/analysis"
	domain "github.com/crediview/policyhub/internal/domain/policies"
	"github.com/crediview/policyhub/internal/domain/usage"
	"github.com/crediview/policyhub/internal/domain/users"
	"github.com/crediview/policyhub/internal/middleware"
)

type Router struct {
	policies *apppolicies.Service
	analysis *appanalysis.Service
	auth     *appauth.Service
	meter    *quota.Meter
	usage    usage.Repository
}

func NewRouter(policySvc *apppolicies.Service, analysisSvc *appanalysis.Service, authSvc *appauth.Service, meter *quota.Meter, usageRepo usage.Repository) http.Handler {
	r := &Router{policies: policySvc, analysis: analysisSvc, auth: authSvc, meter: meter, usage: usageRepo}
	mux := chi.NewRouter()

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/auth/signup", r.wrap(r.handleSignup))
		rt.Post("/auth/login", r.wrap(r.handleLogin))
		rt.Get("/auth/me", r.wrap(r.handleMe))

		rt.Post("/ai/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/ai/usage", r.wrap(r.handleAIUsage))
		rt.Get("/ai/quota", r.wrap(r.handleAIQuota))

		rt.Post("/policies", r.wrap(r.handleCreatePolicy))
		rt.Get("/policies", r.wrap(r.handleListPolicies))
		rt.Post("/policies/search", r.wrap(r.handleSearch))
		rt.Get("/policies/search/popular", r.wrap(r.handlePopularSearches))
		rt.Get("/policies/stats", r.wrap(r.handleStats))
		rt.Get("/policies/{id}", r.wrap(r.handleGetPolicy))
		rt.Put("/policies/{id}", r.wrap(r.handleUpdatePolicy))
		rt.Delete("/policies/{id}", r.wrap(r.handleDeletePolicy))
		rt.Post("/policies/{id}/export", r.wrap(r.handleExportPolicy))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError marks caller mistakes that map to 400
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }

func badRequest(format string, args ...any) error {
	return badRequestError{fmt.Errorf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequestError
		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, sql.ErrNoRows):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, users.ErrNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
		case errors.Is(err, domanalysis.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		case errors.Is(err, domanalysis.ErrEmptyContent):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, appauth.ErrInvalidCredentials):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, users.ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.As(err, &br):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

//
// ==== AUTH ====
//

// POST /v1/auth/signup
func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) error {
	var cmd appauth.SignupCommand
	if err := json.NewDecoder(req.Body).Decode(&cmd); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	u, err := r.auth.Signup(req.Context(), cmd)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, u)
}

// POST /v1/auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	token, u, err := r.auth.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": u})
}

// GET /v1/auth/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	userID := middleware.GetUserFromContext(req.Context())
	if userID == "" {
		return appauth.ErrInvalidCredentials
	}
	u, err := r.auth.Me(req.Context(), userID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, u)
}

//
// ==== AI ====
//

// POST /v1/ai/analyze
// Body: {"title": "...", "content": "...", "analysis_type": "full|quick|summary"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body domanalysis.Request
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if err := middleware.ValidateAnalysisType(string(body.Mode)); err != nil {
		return badRequest("%v", err)
	}

	outcome, err := r.analysis.Process(req.Context(), body)
	if err != nil {
		return err
	}

	middleware.IncrementAnalyses()
	middleware.AddTokens(outcome.TokensUsed)
	if !outcome.Success {
		middleware.IncrementDegraded()
	}

	return writeJSON(w, http.StatusOK, outcome)
}

// GET /v1/ai/usage?days=7
func (r *Router) handleAIUsage(w http.ResponseWriter, req *http.Request) error {
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	days = middleware.ValidateDays(days)

	summary, err := r.usage.Summary(req.Context(), days)
	if err != nil {
		return err
	}
	recent, err := r.usage.Latest(req.Context(), 10)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"period_days": days,
		"statistics":  summary,
		"recent_logs": recent,
	})
}

// GET /v1/ai/quota
func (r *Router) handleAIQuota(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.meter.Stats())
}

//
// ==== POLICIES ====
//

// POST /v1/policies
func (r *Router) handleCreatePolicy(w http.ResponseWriter, req *http.Request) error {
	var cmd apppolicies.CreatePolicyCommand
	if err := json.NewDecoder(req.Body).Decode(&cmd); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if err := middleware.ValidatePriority(cmd.Priority); err != nil {
		return badRequest("%v", err)
	}
	if cmd.CreatedBy == "" {
		cmd.CreatedBy = middleware.GetUserFromContext(req.Context())
	}

	res, err := r.policies.Create(req.Context(), cmd)
	if err != nil {
		if errors.Is(err, domanalysis.ErrEmptyContent) {
			return err
		}
		return badRequest("%v", err)
	}

	middleware.IncrementAnalyses()
	middleware.AddTokens(res.Analysis.TokensUsed)
	if !res.Analysis.Success {
		middleware.IncrementDegraded()
	}

	return writeJSON(w, http.StatusCreated, res)
}

// GET /v1/policies?page=&limit=&category=&department=&status=&keyword=
func (r *Router) handleListPolicies(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	limit = middleware.ValidateLimit(limit)

	if err := middleware.ValidateStatus(q.Get("status")); err != nil {
		return badRequest("%v", err)
	}

	filter := domain.ListFilter{
		Category:   q.Get("category"),
		Department: q.Get("department"),
		Status:     q.Get("status"),
		Keyword:    middleware.SanitizeString(q.Get("keyword")),
	}
	list, err := r.policies.List(req.Context(), filter, page, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/policies/{id}
func (r *Router) handleGetPolicy(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidatePolicyID(id); err != nil {
		return badRequest("%v", err)
	}
	p, err := r.policies.Get(req.Context(), domain.PolicyID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

// PUT /v1/policies/{id}
func (r *Router) handleUpdatePolicy(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidatePolicyID(id); err != nil {
		return badRequest("%v", err)
	}
	var cmd apppolicies.UpdatePolicyCommand
	if err := json.NewDecoder(req.Body).Decode(&cmd); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if err := middleware.ValidateStatus(cmd.Status); err != nil {
		return badRequest("%v", err)
	}
	if err := middleware.ValidatePriority(cmd.Priority); err != nil {
		return badRequest("%v", err)
	}

	p, err := r.policies.Update(req.Context(), domain.PolicyID(id), cmd)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

// DELETE /v1/policies/{id}
func (r *Router) handleDeletePolicy(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidatePolicyID(id); err != nil {
		return badRequest("%v", err)
	}
	if err := r.policies.Delete(req.Context(), domain.PolicyID(id)); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// POST /v1/policies/search
func (r *Router) handleSearch(w http.ResponseWriter, req *http.Request) error {
	var q domain.SearchQuery
	if err := json.NewDecoder(req.Body).Decode(&q); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	q.Keyword = middleware.SanitizeString(q.Keyword)
	q.PageSize = middleware.ValidateLimit(q.PageSize)

	userID := middleware.GetUserFromContext(req.Context())
	res, err := r.policies.Search(req.Context(), userID, q)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/policies/search/popular
func (r *Router) handlePopularSearches(w http.ResponseWriter, req *http.Request) error {
	popular, err := r.policies.PopularSearches(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"popular_searches": popular})
}

// GET /v1/policies/stats?type=dashboard|detailed&period=30d
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	typ := req.URL.Query().Get("type")
	if typ == "" {
		typ = "dashboard"
	}
	switch typ {
	case "dashboard":
		stats, err := r.policies.DashboardStats(req.Context())
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, stats)
	case "detailed":
		period := req.URL.Query().Get("period")
		stats, err := r.policies.DetailedStats(req.Context(), period)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, stats)
	default:
		return badRequest("unsupported stats type: %s", typ)
	}
}

// POST /v1/policies/{id}/export
func (r *Router) handleExportPolicy(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidatePolicyID(id); err != nil {
		return badRequest("%v", err)
	}
	url, err := r.policies.Export(req.Context(), domain.PolicyID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"export_url": url})
}
