package query

import (
	"fmt"

	"github.com/shopfloor/product-catalog/internal/catalog/domain"
)

// RelatedLimit caps how many related products a lookup returns
const RelatedLimit = 4

// RelatedProductsQuery represents the query for products related to the one
// identified by slug.
type RelatedProductsQuery struct {
	Slug string
}

// RelatedProductsHandler handles related products queries
type RelatedProductsHandler struct {
	repo domain.ProductRepository
}

// NewRelatedProductsHandler creates a new related products handler
func NewRelatedProductsHandler(repo domain.ProductRepository) *RelatedProductsHandler {
	return &RelatedProductsHandler{repo: repo}
}

// Handle returns up to RelatedLimit products sharing the category of the
// product behind slug, excluding that product.
func (h *RelatedProductsHandler) Handle(q RelatedProductsQuery) ([]domain.Product, error) {
	product, err := h.repo.FindBySlug(q.Slug)
	if err != nil {
		return nil, err
	}

	related, err := h.repo.FindRelated(product, RelatedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to find related products: %w", err)
	}
	if related == nil {
		related = []domain.Product{}
	}
	return related, nil
}
