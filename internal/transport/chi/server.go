// Package chi is the HTTP transport: routing, request validation, and the
// mapping of domain errors to status codes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/comparely/shopmatch/internal/domain"
	"github.com/comparely/shopmatch/internal/logger"
	"github.com/comparely/shopmatch/internal/scoring"
)

// scoreService computes and persists product scores.
type scoreService interface {
	Quality(category domain.Category, specs map[string]string) float64
	Final(qualityScore, rating float64) float64
	ScoreProduct(ctx context.Context, id int64) (domain.Product, error)
	RegisterCategory(category domain.Category, card scoring.Scorecard, refs map[string]float64) error
}

// alternativesService answers alternative-product queries.
type alternativesService interface {
	Find(ctx context.Context, category domain.Category,
		targetScore, maxPrice float64, limit int) ([]domain.Product, error)
}

// recommendService answers similarity queries and maintains the index.
type recommendService interface {
	Recommend(ctx context.Context, productID int64, k int) ([]domain.Recommendation, error)
	ReindexAll(ctx context.Context) (int, error)
	IndexOne(ctx context.Context, productID int64) error
}

// productStore reads and creates catalog rows.
type productStore interface {
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (int64, error)
}

// indexCounter reports index size for the health check.
type indexCounter interface {
	Count(ctx context.Context) (int, error)
}

// Server wires the usecases to HTTP handlers. Handlers log through the
// request-scoped logger installed by the middleware.
type Server struct {
	score        scoreService
	alternatives alternativesService
	recommend    recommendService
	catalog      productStore
	idx          indexCounter
	embedHealth  domain.HealthChecker
	validate     *validator.Validate
}

// NewServer creates an HTTP API server.
func NewServer(
	score scoreService,
	alternatives alternativesService,
	recommend recommendService,
	catalog productStore,
	idx indexCounter,
	embedHealth domain.HealthChecker,
) *Server {
	return &Server{
		score:        score,
		alternatives: alternatives,
		recommend:    recommend,
		catalog:      catalog,
		idx:          idx,
		embedHealth:  embedHealth,
		validate:     validator.New(),
	}
}

// Register binds all endpoints to the router. Middleware is assembled by
// the composition root.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/quality/score", s.handleScore)
		r.Post("/categories", s.handleRegisterCategory)
		r.Post("/products", s.handleCreateProduct)
		r.Post("/products/{id}/score", s.handleScoreProduct)
		r.Get("/products/{id}/alternatives", s.handleAlternatives)
		r.Get("/products/{id}/recommendations", s.handleRecommendations)
		r.Post("/index/rebuild", s.handleRebuild)
		r.Post("/index/products/{id}", s.handleIndexOne)
	})
}

// handleScore handles POST /v1/quality/score: ad-hoc scoring without catalog
// persistence.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	category := domain.ParseCategory(req.Category)
	quality := s.score.Quality(category, req.Specs)

	resp := ScoreResponse{
		Category:     string(category),
		QualityScore: quality,
	}
	if req.Rating != nil {
		final := s.score.Final(quality, *req.Rating)
		resp.FinalScore = &final
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleRegisterCategory handles POST /v1/categories.
func (s *Server) handleRegisterCategory(w http.ResponseWriter, r *http.Request) {
	var req RegisterCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	card := make(scoring.Scorecard, len(req.Scorecard))
	for feature, weight := range req.Scorecard {
		card[feature] = weight
	}

	err := s.score.RegisterCategory(domain.Category(req.Category), card, req.References)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// handleCreateProduct handles POST /v1/products: insert a catalog row and
// compute its derived scores in the same call, so a freshly created product
// is immediately comparable.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	id, err := s.catalog.CreateProduct(r.Context(), productFromRequest(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	p, err := s.score.ScoreProduct(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, productToDTO(p))
}

// handleScoreProduct handles POST /v1/products/{id}/score: recompute and
// persist both derived scores for a stored product.
func (s *Server) handleScoreProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}

	p, err := s.score.ScoreProduct(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productToDTO(p))
}

// handleAlternatives handles GET /v1/products/{id}/alternatives. The price
// ceiling defaults to the target product's own price.
func (s *Server) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}

	p, err := s.catalog.GetProduct(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	maxPrice := p.Price
	if v := r.URL.Query().Get("max_price"); v != "" {
		maxPrice, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "max_price must be a number")
			return
		}
	}
	limit := queryInt(r, "limit", 0)

	items, err := s.alternatives.Find(r.Context(), p.Category, p.FinalScore, maxPrice, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	// The target product satisfies its own filters.
	dtos := make([]ProductResponse, 0, len(items))
	for _, alt := range items {
		if alt.ID == id {
			continue
		}
		dtos = append(dtos, productToDTO(alt))
	}

	writeJSON(w, http.StatusOK, AlternativesResponse{ProductID: id, Items: dtos})
}

// handleRecommendations handles GET /v1/products/{id}/recommendations.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}
	k := queryInt(r, "k", 0)

	recs, err := s.recommend.Recommend(r.Context(), id, k)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]RecommendationResponse, len(recs))
	for i, rec := range recs {
		items[i] = recommendationToDTO(rec)
	}

	writeJSON(w, http.StatusOK, RecommendationsResponse{ProductID: id, Items: items})
}

// handleRebuild handles POST /v1/index/rebuild.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	indexed, err := s.recommend.ReindexAll(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RebuildResponse{Indexed: indexed})
}

// handleIndexOne handles POST /v1/index/products/{id}.
func (s *Server) handleIndexOne(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}

	if err := s.recommend.IndexOne(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /healthz: index reachability plus embedding
// provider availability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if _, err := s.idx.Count(ctx); err != nil {
		checks["index"] = "unhealthy"
		healthy = false
	} else {
		checks["index"] = "healthy"
	}

	if s.embedHealth != nil {
		if err := s.embedHealth.HealthCheck(ctx); err != nil {
			checks["embedding"] = "unhealthy"
			healthy = false
		} else {
			checks["embedding"] = "healthy"
		}
	}

	status, httpStatus := "healthy", http.StatusOK
	if !healthy {
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: status, Checks: checks})
}

// productID parses the {id} path parameter, writing a 400 on failure.
func (s *Server) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "product id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidInput,
		domain.ErrBackendUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", msg)
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", msg)
	case errors.Is(err, domain.ErrBackendUnavailable):
		writeError(w, http.StatusBadGateway, "backend_unavailable", msg)
	default:
		log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
