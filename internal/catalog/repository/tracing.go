package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/shopfloor/product-catalog/internal/catalog/domain"
)

var tracer = otel.Tracer("catalog-repository")

// GormProductRepositoryWithTracing wraps GormProductRepository with tracing
type GormProductRepositoryWithTracing struct {
	*GormProductRepository
}

// NewGormProductRepositoryWithTracing creates a new repository with tracing
func NewGormProductRepositoryWithTracing(db *gorm.DB) *GormProductRepositoryWithTracing {
	return &GormProductRepositoryWithTracing{
		GormProductRepository: NewGormProductRepository(db),
	}
}

// CreateWithContext persists a product inside a repository.Create span
func (r *GormProductRepositoryWithTracing) CreateWithContext(ctx context.Context, product *domain.Product) error {
	_, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("product.title", product.Title),
			attribute.String("product.slug", product.Slug),
			attribute.String("product.category", product.Category),
			attribute.Float64("product.price", product.Price.Round()),
		),
	)
	defer span.End()

	if err := r.GormProductRepository.Create(product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("product.id", int(product.ID)))
	return nil
}

// FindBySlugWithContext looks up a product inside a repository.FindBySlug span
func (r *GormProductRepositoryWithTracing) FindBySlugWithContext(ctx context.Context, slug string) (*domain.Product, error) {
	_, span := tracer.Start(ctx, "repository.FindBySlug",
		trace.WithAttributes(
			attribute.String("product.slug", slug),
		),
	)
	defer span.End()

	product, err := r.GormProductRepository.FindBySlug(slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("product.id", int(product.ID)),
		attribute.String("product.title", product.Title),
	)
	return product, nil
}

// ListWithContext runs a filtered list inside a repository.List span
func (r *GormProductRepositoryWithTracing) ListWithContext(ctx context.Context, filter domain.ListFilter) ([]domain.Product, int64, error) {
	_, span := tracer.Start(ctx, "repository.List",
		trace.WithAttributes(
			attribute.String("query.search", filter.Search),
			attribute.StringSlice("query.categories", filter.Categories),
			attribute.String("query.sort_by", filter.SortBy),
			attribute.Int("query.page", filter.Page),
			attribute.Int("query.limit", filter.Limit),
		),
	)
	defer span.End()

	products, total, err := r.GormProductRepository.List(filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	span.SetAttributes(
		attribute.Int("result.count", len(products)),
		attribute.Int64("result.total", total),
	)
	return products, total, nil
}

// DeleteWithContext removes a product inside a repository.Delete span
func (r *GormProductRepositoryWithTracing) DeleteWithContext(ctx context.Context, id uint) error {
	_, span := tracer.Start(ctx, "repository.Delete",
		trace.WithAttributes(
			attribute.Int("product.id", int(id)),
		),
	)
	defer span.End()

	if err := r.GormProductRepository.Delete(id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
