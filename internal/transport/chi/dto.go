package chi

import "github.com/comparely/shopmatch/internal/domain"

// ScoreRequest is the body of POST /v1/quality/score.
type ScoreRequest struct {
	Category string            `json:"category" validate:"required"`
	Specs    map[string]string `json:"specs"`
	Rating   *float64          `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// ScoreResponse carries the computed scores. FinalScore is present only when
// a rating was supplied.
type ScoreResponse struct {
	Category     string   `json:"category"`
	QualityScore float64  `json:"quality_score"`
	FinalScore   *float64 `json:"final_score,omitempty"`
}

// RegisterCategoryRequest is the body of POST /v1/categories.
type RegisterCategoryRequest struct {
	Category   string             `json:"category" validate:"required"`
	Scorecard  map[string]int     `json:"scorecard" validate:"required,min=1"`
	References map[string]float64 `json:"references"`
}

// ProductRequest is the body of POST /v1/products.
type ProductRequest struct {
	Name        string            `json:"name" validate:"required"`
	Category    string            `json:"category" validate:"required"`
	Price       float64           `json:"price" validate:"gte=0"`
	Rating      float64           `json:"rating" validate:"gte=0,lte=5"`
	Platform    string            `json:"platform"`
	URL         string            `json:"url"`
	ImageURL    string            `json:"image_url"`
	Description string            `json:"description"`
	Specs       map[string]string `json:"specs"`
}

// ProductResponse is one catalog product on the wire.
type ProductResponse struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Price        float64           `json:"price"`
	Rating       float64           `json:"rating"`
	Platform     string            `json:"platform,omitempty"`
	URL          string            `json:"url,omitempty"`
	ImageURL     string            `json:"image_url,omitempty"`
	Specs        map[string]string `json:"specs,omitempty"`
	QualityScore float64           `json:"quality_score"`
	FinalScore   float64           `json:"final_score"`
}

// AlternativesResponse is the body of GET /v1/products/{id}/alternatives.
type AlternativesResponse struct {
	ProductID int64             `json:"product_id"`
	Items     []ProductResponse `json:"items"`
}

// RecommendationResponse is one similar-product hit on the wire.
type RecommendationResponse struct {
	ProductID          int64   `json:"product_id"`
	Name               string  `json:"name"`
	Category           string  `json:"category"`
	Price              float64 `json:"price"`
	Rating             float64 `json:"rating"`
	Platform           string  `json:"platform,omitempty"`
	Similarity         float64 `json:"similarity"`
	DescriptionPreview string  `json:"description_preview,omitempty"`
}

// RecommendationsResponse is the body of GET /v1/products/{id}/recommendations.
type RecommendationsResponse struct {
	ProductID int64                    `json:"product_id"`
	Items     []RecommendationResponse `json:"items"`
}

// RebuildResponse is the body of POST /v1/index/rebuild.
type RebuildResponse struct {
	Indexed int `json:"indexed"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func productFromRequest(req ProductRequest) domain.Product {
	return domain.Product{
		Name:        req.Name,
		Category:    domain.ParseCategory(req.Category),
		Price:       req.Price,
		Rating:      req.Rating,
		Platform:    req.Platform,
		URL:         req.URL,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Specs:       req.Specs,
	}
}

func productToDTO(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Category:     string(p.Category),
		Price:        p.Price,
		Rating:       p.Rating,
		Platform:     p.Platform,
		URL:          p.URL,
		ImageURL:     p.ImageURL,
		Specs:        p.Specs,
		QualityScore: p.QualityScore,
		FinalScore:   p.FinalScore,
	}
}

func recommendationToDTO(r domain.Recommendation) RecommendationResponse {
	return RecommendationResponse{
		ProductID:          r.ProductID,
		Name:               r.Name,
		Category:           string(r.Category),
		Price:              r.Price,
		Rating:             r.Rating,
		Platform:           r.Platform,
		Similarity:         r.Similarity,
		DescriptionPreview: r.DescriptionPreview,
	}
}
