package command

import (
	"fmt"

	"github.com/shopfloor/product-catalog/internal/catalog/domain"
	"github.com/shopfloor/product-catalog/pkg/logger"
)

// UpdateProductCommand represents a partial product update. Nil pointer
// fields are left untouched; Image is the already-stored replacement asset
// path, empty when no new image was uploaded.
type UpdateProductCommand struct {
	ID           uint
	Title        *string
	Description  *string
	Category     *string
	Price        *domain.Price
	Availability *bool
	Image        string
}

// UpdateProductHandler handles product updates
type UpdateProductHandler struct {
	repo   domain.ProductRepository
	assets domain.AssetStore
}

// NewUpdateProductHandler creates a new update product handler
func NewUpdateProductHandler(repo domain.ProductRepository, assets domain.AssetStore) *UpdateProductHandler {
	return &UpdateProductHandler{repo: repo, assets: assets}
}

// Handle applies the supplied fields, recomputes the slug when the title
// changes, re-validates, checks slug uniqueness and persists. A replacement
// image that cannot be bound to the record is deleted again; the previous
// image is removed best-effort only after the record update succeeded.
func (h *UpdateProductHandler) Handle(cmd UpdateProductCommand) (*domain.Product, error) {
	product, err := h.repo.FindByID(cmd.ID)
	if err != nil {
		h.discardUpload(cmd.Image)
		return nil, err
	}

	previousImage := product.Image

	if cmd.Title != nil {
		product.Title = *cmd.Title
		product.Slug = domain.Slugify(product.Title)
	}
	if cmd.Description != nil {
		product.Description = *cmd.Description
	}
	if cmd.Category != nil {
		product.Category = *cmd.Category
	}
	if cmd.Price != nil {
		product.Price = *cmd.Price
	}
	if cmd.Availability != nil {
		product.Availability = *cmd.Availability
	}
	if cmd.Image != "" {
		product.Image = cmd.Image
	}

	if err := product.Validate(); err != nil {
		h.discardUpload(cmd.Image)
		return nil, err
	}

	taken, err := h.repo.SlugTaken(product.Slug, product.ID)
	if err != nil {
		h.discardUpload(cmd.Image)
		return nil, fmt.Errorf("failed to check slug uniqueness: %w", err)
	}
	if taken {
		h.discardUpload(cmd.Image)
		return nil, domain.ErrSlugTaken
	}

	if err := h.repo.Update(product); err != nil {
		h.discardUpload(cmd.Image)
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	// The record now references the new image; dropping the stale file is
	// advisory and never fails the update.
	if cmd.Image != "" && previousImage != "" && previousImage != cmd.Image {
		if err := h.assets.Remove(previousImage); err != nil {
			logger.Logger.Warn().
				Err(err).
				Uint("product_id", product.ID).
				Str("image", previousImage).
				Msg("Failed to remove replaced image")
		}
	}

	return product, nil
}

func (h *UpdateProductHandler) discardUpload(path string) {
	if path == "" {
		return
	}
	if err := h.assets.Remove(path); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("image", path).
			Msg("Failed to remove uploaded image after rejected update")
	}
}
