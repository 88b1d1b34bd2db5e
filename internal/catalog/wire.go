//go:build wireinject
// +build wireinject

package catalog

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	httpDelivery "github.com/shopfloor/product-catalog/internal/catalog/delivery/http"
	"github.com/shopfloor/product-catalog/internal/catalog/domain"
	"github.com/shopfloor/product-catalog/internal/catalog/repository"
	"github.com/shopfloor/product-catalog/internal/catalog/usecase/command"
	"github.com/shopfloor/product-catalog/internal/catalog/usecase/query"
	"github.com/shopfloor/product-catalog/kafka"
)

// ProvideProductRepository provides the product repository
func ProvideProductRepository(db *gorm.DB) domain.ProductRepository {
	return repository.NewGormProductRepository(db)
}

// Command handler providers
func ProvideCreateProductHandler(repo domain.ProductRepository, assets domain.AssetStore) *command.CreateProductHandler {
	return command.NewCreateProductHandler(repo, assets)
}

func ProvideUpdateProductHandler(repo domain.ProductRepository, assets domain.AssetStore) *command.UpdateProductHandler {
	return command.NewUpdateProductHandler(repo, assets)
}

func ProvideDeleteProductHandler(repo domain.ProductRepository, assets domain.AssetStore) *command.DeleteProductHandler {
	return command.NewDeleteProductHandler(repo, assets)
}

// Query handler providers
func ProvideGetProductHandler(repo domain.ProductRepository) *query.GetProductHandler {
	return query.NewGetProductHandler(repo)
}

func ProvideListProductsHandler(repo domain.ProductRepository) *query.ListProductsHandler {
	return query.NewListProductsHandler(repo)
}

func ProvideRelatedProductsHandler(repo domain.ProductRepository) *query.RelatedProductsHandler {
	return query.NewRelatedProductsHandler(repo)
}

// ProviderSet is the Wire provider set for the catalog service
var ProviderSet = wire.NewSet(
	ProvideProductRepository,
	ProvideCreateProductHandler,
	ProvideUpdateProductHandler,
	ProvideDeleteProductHandler,
	ProvideGetProductHandler,
	ProvideListProductsHandler,
	ProvideRelatedProductsHandler,
)

// InitializeProductHandler wires the full HTTP handler graph
func InitializeProductHandler(
	db *gorm.DB,
	assets domain.AssetStore,
	cache *httpDelivery.ResponseCache,
	events *kafka.Publisher,
	reg prometheus.Registerer,
) *httpDelivery.ProductHandler {
	wire.Build(
		ProvideProductRepository,
		httpDelivery.NewProductHandler,
	)
	return nil
}
