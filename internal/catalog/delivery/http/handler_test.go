package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shopfloor/product-catalog/internal/catalog/domain"
	"github.com/shopfloor/product-catalog/internal/catalog/repository"
	"github.com/shopfloor/product-catalog/pkg/auth"
	"github.com/shopfloor/product-catalog/pkg/storage"
)

type testEnv struct {
	router *mux.Router
	repo   *repository.GormProductRepository
	disk   *storage.LocalDisk
	token  string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Product{}))

	disk, err := storage.NewLocalDisk(t.TempDir())
	require.NoError(t, err)

	repo := repository.NewGormProductRepository(db)
	handler := NewProductHandler(repo, disk, nil, nil, prometheus.NewRegistry())

	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	token, err := auth.GenerateToken("admin", "admin")
	require.NoError(t, err)

	return &testEnv{router: router, repo: repo, disk: disk, token: token}
}

func multipartBody(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	if withImage {
		fw, err := w.CreateFormFile("image", "test.jpg")
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func (e *testEnv) do(t *testing.T, method, target string, body *bytes.Buffer, contentType string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createProduct(t *testing.T, title, category, price string) domain.Product {
	t.Helper()

	body, contentType := multipartBody(t, map[string]string{
		"title":       title,
		"description": "Description of " + title,
		"category":    category,
		"price":       price,
	}, true)

	rec := e.do(t, http.MethodPost, "/api/products", body, contentType, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var product domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	return product
}

func TestCreateProductEndpoint(t *testing.T) {
	t.Run("created with derived slug and stored image", func(t *testing.T) {
		env := setupEnv(t)
		product := env.createProduct(t, "Red Shoes", domain.CategoryShoes, "49.99")

		assert.Equal(t, "red-shoes", product.Slug)
		assert.True(t, env.disk.Exists(product.Image))
	})

	t.Run("price has two decimal digits on the wire", func(t *testing.T) {
		env := setupEnv(t)
		body, contentType := multipartBody(t, map[string]string{
			"title":       "Cheap Pen",
			"description": "A pen",
			"category":    domain.CategoryAccessories,
			"price":       "5",
		}, true)

		rec := env.do(t, http.MethodPost, "/api/products", body, contentType, true)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"price":5.00`)
	})

	t.Run("missing image is rejected", func(t *testing.T) {
		env := setupEnv(t)
		body, contentType := multipartBody(t, map[string]string{
			"title":       "Red Shoes",
			"description": "Comfortable",
			"category":    domain.CategoryShoes,
			"price":       "49.99",
		}, false)

		rec := env.do(t, http.MethodPost, "/api/products", body, contentType, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "image is required")

		count, err := env.repo.Count()
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})

	t.Run("non-numeric price is rejected", func(t *testing.T) {
		env := setupEnv(t)
		body, contentType := multipartBody(t, map[string]string{
			"title":       "Red Shoes",
			"description": "Comfortable",
			"category":    domain.CategoryShoes,
			"price":       "cheap",
		}, true)

		rec := env.do(t, http.MethodPost, "/api/products", body, contentType, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "valid number")
	})

	t.Run("duplicate title is a conflict", func(t *testing.T) {
		env := setupEnv(t)
		env.createProduct(t, "Red Shoes", domain.CategoryShoes, "49.99")

		body, contentType := multipartBody(t, map[string]string{
			"title":       "Red Shoes",
			"description": "Another pair",
			"category":    domain.CategoryShoes,
			"price":       "20",
		}, true)

		rec := env.do(t, http.MethodPost, "/api/products", body, contentType, true)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("requires admin token", func(t *testing.T) {
		env := setupEnv(t)
		body, contentType := multipartBody(t, map[string]string{"title": "X"}, true)

		rec := env.do(t, http.MethodPost, "/api/products", body, contentType, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestListProductsEndpoint(t *testing.T) {
	env := setupEnv(t)
	env.createProduct(t, "Red Shoes", domain.CategoryShoes, "49.99")
	env.createProduct(t, "Blue Shoes", domain.CategoryShoes, "15.00")
	env.createProduct(t, "Go Programming", domain.CategoryBooks, "35.00")

	t.Run("response shape", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/products", nil, "", false)
		require.Equal(t, http.StatusOK, rec.Code)

		var page struct {
			Products    []domain.Product `json:"products"`
			TotalPages  int              `json:"totalPages"`
			CurrentPage int              `json:"currentPage"`
			Total       int64            `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Len(t, page.Products, 3)
		assert.EqualValues(t, 3, page.Total)
		assert.Equal(t, 1, page.TotalPages)
		assert.Equal(t, 1, page.CurrentPage)
	})

	t.Run("category filter", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/products?category=Books", nil, "", false)
		require.Equal(t, http.StatusOK, rec.Code)

		var page struct {
			Products []domain.Product `json:"products"`
			Total    int64            `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Len(t, page.Products, 1)
		assert.Equal(t, "Go Programming", page.Products[0].Title)
	})

	t.Run("price sort", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/products?sortBy=price-asc", nil, "", false)
		require.Equal(t, http.StatusOK, rec.Code)

		var page struct {
			Products []domain.Product `json:"products"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Len(t, page.Products, 3)
		assert.Equal(t, "Blue Shoes", page.Products[0].Title)
	})

	t.Run("non-numeric price bound is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/products?minPrice=abc", nil, "", false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "minPrice")
	})

	t.Run("garbage page falls back to defaults", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/products?page=abc&limit=xyz", nil, "", false)
		require.Equal(t, http.StatusOK, rec.Code)

		var page struct {
			CurrentPage int `json:"currentPage"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(t, 1, page.CurrentPage)
	})
}

func TestGetProductEndpoint(t *testing.T) {
	env := setupEnv(t)
	env.createProduct(t, "Red Shoes", domain.CategoryShoes, "49.99")

	rec := env.do(t, http.MethodGet, "/api/products/red-shoes", nil, "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var product domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	assert.Equal(t, "Red Shoes", product.Title)

	rec = env.do(t, http.MethodGet, "/api/products/missing", nil, "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRelatedProductsEndpoint(t *testing.T) {
	env := setupEnv(t)
	env.createProduct(t, "Running Shoes", domain.CategoryShoes, "30.00")
	for i := 0; i < 6; i++ {
		env.createProduct(t, fmt.Sprintf("Shoes Model %d", i), domain.CategoryShoes, "20.00")
	}

	rec := env.do(t, http.MethodGet, "/api/products/running-shoes/related", nil, "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var related []domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &related))
	assert.Len(t, related, 4)
	for _, p := range related {
		assert.NotEqual(t, "running-shoes", p.Slug)
	}

	rec = env.do(t, http.MethodGet, "/api/products/missing/related", nil, "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateProductEndpoint(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		env := setupEnv(t)
		product := env.createProduct(t, "Red Shoes", domain.CategoryShoes, "49.99")

		body, contentType := multipartBody(t, map[string]string{"price": "59.99"}, false)
		rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", product.ID), body, contentType, true)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated domain.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Red Shoes", updated.Title)
		assert.Equal(t, domain.Price(59.99), updated.Price)
	})

	t.Run("image replacement drops the old file", func(t *testing.T) {
		env := setupEnv(t)
		product := env.createProduct(t, "Red Shoes", domain.CategoryShoes, "49.99")

		body, contentType := multipartBody(t, nil, true)
		rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", product.ID), body, contentType, true)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated domain.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.NotEqual(t, product.Image, updated.Image)
		assert.True(t, env.disk.Exists(updated.Image))
		assert.False(t, env.disk.Exists(product.Image))
	})

	t.Run("unknown id", func(t *testing.T) {
		env := setupEnv(t)
		body, contentType := multipartBody(t, map[string]string{"price": "5"}, false)
		rec := env.do(t, http.MethodPut, "/api/products/999", body, contentType, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("requires admin token", func(t *testing.T) {
		env := setupEnv(t)
		body, contentType := multipartBody(t, map[string]string{"price": "5"}, false)
		rec := env.do(t, http.MethodPut, "/api/products/1", body, contentType, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDeleteProductEndpoint(t *testing.T) {
	env := setupEnv(t)
	product := env.createProduct(t, "Red Shoes", domain.CategoryShoes, "49.99")

	rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", product.ID), nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deleted")
	assert.False(t, env.disk.Exists(product.Image))

	rec = env.do(t, http.MethodGet, "/api/products/red-shoes", nil, "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", product.ID), nil, "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
