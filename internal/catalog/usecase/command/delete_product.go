package command

import (
	"fmt"

	"github.com/shopfloor/product-catalog/internal/catalog/domain"
	"github.com/shopfloor/product-catalog/pkg/logger"
)

// DeleteProductCommand represents the command to delete a product
type DeleteProductCommand struct {
	ID uint
}

// DeleteProductHandler handles product deletion
type DeleteProductHandler struct {
	repo   domain.ProductRepository
	assets domain.AssetStore
}

// NewDeleteProductHandler creates a new delete product handler
func NewDeleteProductHandler(repo domain.ProductRepository, assets domain.AssetStore) *DeleteProductHandler {
	return &DeleteProductHandler{repo: repo, assets: assets}
}

// Handle destroys the record and then removes its image file. Removing the
// record first keeps the invariant that a readable record always points at
// an existing file; the file deletion itself is best-effort.
func (h *DeleteProductHandler) Handle(cmd DeleteProductCommand) error {
	product, err := h.repo.FindByID(cmd.ID)
	if err != nil {
		return err
	}

	if err := h.repo.Delete(product.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if err := h.assets.Remove(product.Image); err != nil {
		logger.Logger.Warn().
			Err(err).
			Uint("product_id", product.ID).
			Str("image", product.Image).
			Msg("Failed to remove image of deleted product")
	}

	return nil
}
