package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shopfloor/product-catalog/internal/catalog/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Product{}))

	return db
}

func seedProduct(t *testing.T, repo *GormProductRepository, title, category string, price float64) *domain.Product {
	t.Helper()

	p := &domain.Product{
		Title:        title,
		Description:  "Description of " + title,
		Image:        "/uploads/" + domain.Slugify(title) + ".jpg",
		Category:     category,
		Price:        domain.Price(price),
		Availability: true,
		Slug:         domain.Slugify(title),
	}
	require.NoError(t, repo.Create(p))
	return p
}

func TestFindBySlug(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))
	seedProduct(t, repo, "Red Shoes", domain.CategoryShoes, 49.99)

	found, err := repo.FindBySlug("red-shoes")
	require.NoError(t, err)
	assert.Equal(t, "Red Shoes", found.Title)

	_, err = repo.FindBySlug("unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSlugTaken(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))
	p := seedProduct(t, repo, "Red Shoes", domain.CategoryShoes, 49.99)

	taken, err := repo.SlugTaken("red-shoes", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	// A product does not collide with itself
	taken, err = repo.SlugTaken("red-shoes", p.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.SlugTaken("blue-shoes", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestFindRelated(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))

	anchor := seedProduct(t, repo, "Running Shoes", domain.CategoryShoes, 30)
	for i := 0; i < 6; i++ {
		seedProduct(t, repo, fmt.Sprintf("Shoes Model %d", i), domain.CategoryShoes, 20+float64(i))
	}
	seedProduct(t, repo, "Desk Lamp", domain.CategoryHomeGarden, 15)

	related, err := repo.FindRelated(anchor, 4)
	require.NoError(t, err)
	assert.Len(t, related, 4)
	for _, p := range related {
		assert.Equal(t, domain.CategoryShoes, p.Category)
		assert.NotEqual(t, anchor.ID, p.ID)
	}
}

func TestListFilters(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))

	seedProduct(t, repo, "Red Shoes", domain.CategoryShoes, 49.99)
	seedProduct(t, repo, "Blue Shoes", domain.CategoryShoes, 15)
	seedProduct(t, repo, "Go Programming", domain.CategoryBooks, 35)
	seedProduct(t, repo, "Toy Robot", domain.CategoryToys, 12.50)

	t.Run("no filters returns all", func(t *testing.T) {
		products, total, err := repo.List(domain.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, products, 4)
		assert.EqualValues(t, 4, total)
	})

	t.Run("search is case-insensitive substring on title", func(t *testing.T) {
		products, total, err := repo.List(domain.ListFilter{Search: "shoes"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		for _, p := range products {
			assert.Contains(t, p.Title, "Shoes")
		}
	})

	t.Run("category IN semantics", func(t *testing.T) {
		products, total, err := repo.List(domain.ListFilter{
			Categories: []string{domain.CategoryShoes, domain.CategoryBooks},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		for _, p := range products {
			assert.Contains(t, []string{domain.CategoryShoes, domain.CategoryBooks}, p.Category)
		}
	})

	t.Run("unknown category matches nothing", func(t *testing.T) {
		products, total, err := repo.List(domain.ListFilter{Categories: []string{"Nope"}})
		require.NoError(t, err)
		assert.Empty(t, products)
		assert.EqualValues(t, 0, total)
	})

	t.Run("inclusive price range", func(t *testing.T) {
		min, max := 12.50, 35.0
		products, total, err := repo.List(domain.ListFilter{MinPrice: &min, MaxPrice: &max})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		for _, p := range products {
			assert.GreaterOrEqual(t, float64(p.Price), min)
			assert.LessOrEqual(t, float64(p.Price), max)
		}
	})

	t.Run("filters combine with AND", func(t *testing.T) {
		min := 20.0
		products, total, err := repo.List(domain.ListFilter{
			Search:     "shoes",
			Categories: []string{domain.CategoryShoes},
			MinPrice:   &min,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, products, 1)
		assert.Equal(t, "Red Shoes", products[0].Title)
	})
}

func TestListOrdering(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))

	seedProduct(t, repo, "First Product", domain.CategoryBooks, 30)
	seedProduct(t, repo, "Second Product", domain.CategoryBooks, 10)
	seedProduct(t, repo, "Third Product", domain.CategoryBooks, 20)

	t.Run("price ascending", func(t *testing.T) {
		products, _, err := repo.List(domain.ListFilter{SortBy: domain.SortPriceAsc})
		require.NoError(t, err)
		for i := 1; i < len(products); i++ {
			assert.LessOrEqual(t, float64(products[i-1].Price), float64(products[i].Price))
		}
	})

	t.Run("price descending", func(t *testing.T) {
		products, _, err := repo.List(domain.ListFilter{SortBy: domain.SortPriceDesc})
		require.NoError(t, err)
		for i := 1; i < len(products); i++ {
			assert.GreaterOrEqual(t, float64(products[i-1].Price), float64(products[i].Price))
		}
	})

	t.Run("default is newest first", func(t *testing.T) {
		products, _, err := repo.List(domain.ListFilter{})
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "Third Product", products[0].Title)
		assert.Equal(t, "First Product", products[2].Title)
	})
}

func TestListPagination(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))

	for i := 0; i < 25; i++ {
		seedProduct(t, repo, fmt.Sprintf("Book Volume %d", i), domain.CategoryBooks, float64(i))
	}

	products, total, err := repo.List(domain.ListFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, products, 10)
	assert.EqualValues(t, 25, total)

	products, total, err = repo.List(domain.ListFilter{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, products, 5)
	assert.EqualValues(t, 25, total)

	// Past the end: empty page, total unchanged
	products, total, err = repo.List(domain.ListFilter{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.EqualValues(t, 25, total)
}

func TestDelete(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))
	p := seedProduct(t, repo, "Red Shoes", domain.CategoryShoes, 49.99)

	require.NoError(t, repo.Delete(p.ID))

	_, err := repo.FindByID(p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(p.ID), domain.ErrNotFound)
}

func TestPriceRoundTrip(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))
	p := seedProduct(t, repo, "Red Shoes", domain.CategoryShoes, 49.99)

	found, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 49.99, float64(found.Price), 0.001)
	assert.WithinDuration(t, time.Now(), found.CreatedAt, time.Minute)
}
