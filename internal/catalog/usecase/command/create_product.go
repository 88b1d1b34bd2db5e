package command

import (
	"fmt"

	"github.com/shopfloor/product-catalog/internal/catalog/domain"
	"github.com/shopfloor/product-catalog/pkg/logger"
)

// CreateProductCommand represents the command to create a new product.
// Image is the already-stored asset path; the handler deletes that file
// again if the record cannot be persisted.
type CreateProductCommand struct {
	Title        string
	Description  string
	Category     string
	Price        domain.Price
	Availability bool
	Image        string
}

// CreateProductHandler handles product creation
type CreateProductHandler struct {
	repo   domain.ProductRepository
	assets domain.AssetStore
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(repo domain.ProductRepository, assets domain.AssetStore) *CreateProductHandler {
	return &CreateProductHandler{repo: repo, assets: assets}
}

// Handle runs the creation pipeline: derive slug, validate, check slug
// uniqueness, persist. Any failure rolls back the uploaded image so no
// orphan file survives a rejected create.
func (h *CreateProductHandler) Handle(cmd CreateProductCommand) (*domain.Product, error) {
	if cmd.Image == "" {
		return nil, domain.NewValidationError("Product image is required")
	}

	product := &domain.Product{
		Title:        cmd.Title,
		Description:  cmd.Description,
		Category:     cmd.Category,
		Price:        cmd.Price,
		Availability: cmd.Availability,
		Image:        cmd.Image,
		Slug:         domain.Slugify(cmd.Title),
	}

	if err := product.Validate(); err != nil {
		h.discardUpload(cmd.Image)
		return nil, err
	}

	taken, err := h.repo.SlugTaken(product.Slug, 0)
	if err != nil {
		h.discardUpload(cmd.Image)
		return nil, fmt.Errorf("failed to check slug uniqueness: %w", err)
	}
	if taken {
		h.discardUpload(cmd.Image)
		return nil, domain.ErrSlugTaken
	}

	if err := h.repo.Create(product); err != nil {
		h.discardUpload(cmd.Image)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (h *CreateProductHandler) discardUpload(path string) {
	if err := h.assets.Remove(path); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("image", path).
			Msg("Failed to remove uploaded image after rejected create")
	}
}
