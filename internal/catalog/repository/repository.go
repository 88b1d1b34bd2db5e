package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shopfloor/product-catalog/internal/catalog/domain"
)

// GormProductRepository persists products through GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// AutoMigrate creates or updates the products table
func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{})
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrSlugTaken
	default:
		return err
	}
}

func (r *GormProductRepository) Create(product *domain.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormProductRepository) FindByID(id uint) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *GormProductRepository) FindBySlug(slug string) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// FindRelated returns up to limit products sharing the product's category,
// excluding the product itself.
func (r *GormProductRepository) FindRelated(product *domain.Product, limit int) ([]domain.Product, error) {
	var related []domain.Product
	err := r.db.
		Where("category = ?", product.Category).
		Where("id <> ?", product.ID).
		Limit(limit).
		Find(&related).Error
	if err != nil {
		return nil, err
	}
	return related, nil
}

// List translates the filter into predicates combined with AND, orders the
// matches and returns one page plus the total match count before slicing.
func (r *GormProductRepository) List(filter domain.ListFilter) ([]domain.Product, int64, error) {
	filter.Normalize()

	q := r.db.Model(&domain.Product{})

	if filter.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(filter.Categories) > 0 {
		q = q.Where("category IN ?", filter.Categories)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	switch filter.SortBy {
	case domain.SortPriceAsc:
		q = q.Order("price ASC")
	case domain.SortPriceDesc:
		q = q.Order("price DESC")
	default:
		// Newest first; id breaks creation-timestamp ties.
		q = q.Order("created_at DESC, id DESC")
	}

	products := []domain.Product{}
	err := q.Limit(filter.Limit).Offset(filter.Offset()).Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

// SlugTaken reports whether another product (excluding excludeID) already
// uses the slug.
func (r *GormProductRepository) SlugTaken(slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&domain.Product{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormProductRepository) Update(product *domain.Product) error {
	if err := r.db.Save(product).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormProductRepository) Delete(id uint) error {
	result := r.db.Delete(&domain.Product{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.Product{}).Count(&count).Error
	return count, err
}
