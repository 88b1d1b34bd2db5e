package query

import (
	"fmt"

	"github.com/shopfloor/product-catalog/internal/catalog/domain"
)

// ListProductsQuery represents the query to list products with optional
// filters, ordering and pagination.
type ListProductsQuery struct {
	Search     string
	Categories []string
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string
	Page       int
	Limit      int
}

// ProductPage is one page of matching products together with the total
// match count before slicing.
type ProductPage struct {
	Products    []domain.Product `json:"products"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	Total       int64            `json:"total"`
}

// ListProductsHandler handles list products queries
type ListProductsHandler struct {
	repo domain.ProductRepository
}

// NewListProductsHandler creates a new list products handler
func NewListProductsHandler(repo domain.ProductRepository) *ListProductsHandler {
	return &ListProductsHandler{repo: repo}
}

// Handle executes the list products query
func (h *ListProductsHandler) Handle(q ListProductsQuery) (*ProductPage, error) {
	filter := domain.ListFilter{
		Search:     q.Search,
		Categories: q.Categories,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		SortBy:     q.SortBy,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	filter.Normalize()

	products, total, err := h.repo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return &ProductPage{
		Products:    products,
		TotalPages:  totalPages,
		CurrentPage: filter.Page,
		Total:       total,
	}, nil
}
