package query

import (
	"github.com/shopfloor/product-catalog/internal/catalog/domain"
)

// GetProductQuery represents the query to get a product by slug
type GetProductQuery struct {
	Slug string
}

// GetProductHandler handles get product queries
type GetProductHandler struct {
	repo domain.ProductRepository
}

// NewGetProductHandler creates a new get product handler
func NewGetProductHandler(repo domain.ProductRepository) *GetProductHandler {
	return &GetProductHandler{repo: repo}
}

// Handle executes the get product query
func (h *GetProductHandler) Handle(q GetProductQuery) (*domain.Product, error) {
	if q.Slug == "" {
		return nil, domain.ErrNotFound
	}
	return h.repo.FindBySlug(q.Slug)
}
