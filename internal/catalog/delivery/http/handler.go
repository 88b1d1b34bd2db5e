package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopfloor/product-catalog/internal/catalog/domain"
	"github.com/shopfloor/product-catalog/internal/catalog/usecase/command"
	"github.com/shopfloor/product-catalog/internal/catalog/usecase/query"
	"github.com/shopfloor/product-catalog/kafka"
	"github.com/shopfloor/product-catalog/pkg/logger"
)

const maxUploadSize = 10 << 20 // 10 MiB

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	createHandler  *command.CreateProductHandler
	updateHandler  *command.UpdateProductHandler
	deleteHandler  *command.DeleteProductHandler
	getHandler     *query.GetProductHandler
	listHandler    *query.ListProductsHandler
	relatedHandler *query.RelatedProductsHandler

	repo   domain.ProductRepository
	assets domain.AssetStore
	cache  *ResponseCache
	events *kafka.Publisher

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	requestSummary *prometheus.SummaryVec
	totalProducts  prometheus.Gauge
}

// NewProductHandler creates a new product handler. Cache and events may be
// nil; both degrade to no-ops.
func NewProductHandler(
	repo domain.ProductRepository,
	assets domain.AssetStore,
	cache *ResponseCache,
	events *kafka.Publisher,
	reg prometheus.Registerer,
) *ProductHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_service_requests_total",
			Help: "Total number of requests to the catalog service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_service_request_duration_seconds",
			Help:    "Duration of catalog service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	requestSummary := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "catalog_service_request_duration_summary",
			Help: "Summary of request durations with client-side quantiles",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.95: 0.01,
				0.99: 0.001,
			},
			MaxAge: 10 * time.Minute,
		},
		[]string{"method", "endpoint"},
	)

	totalProducts := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_service_total_products",
			Help: "Total number of products in the catalog",
		},
	)

	reg.MustRegister(requestCounter, requestLatency, requestSummary, totalProducts)

	return &ProductHandler{
		createHandler:  command.NewCreateProductHandler(repo, assets),
		updateHandler:  command.NewUpdateProductHandler(repo, assets),
		deleteHandler:  command.NewDeleteProductHandler(repo, assets),
		getHandler:     query.NewGetProductHandler(repo),
		listHandler:    query.NewListProductsHandler(repo),
		relatedHandler: query.NewRelatedProductsHandler(repo),
		repo:           repo,
		assets:         assets,
		cache:          cache,
		events:         events,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		requestSummary: requestSummary,
		totalProducts:  totalProducts,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *ProductHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()

		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestSummary.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

// RegisterRoutes registers the catalog routes
func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	// Public storefront routes
	router.HandleFunc("/api/products",
		h.metricsMiddleware("/api/products", h.cache.Middleware(h.ListProducts))).Methods("GET")
	router.HandleFunc("/api/products/{slug}/related",
		h.metricsMiddleware("/api/products/{slug}/related", h.cache.Middleware(h.GetRelatedProducts))).Methods("GET")
	router.HandleFunc("/api/products/{slug}",
		h.metricsMiddleware("/api/products/{slug}", h.cache.Middleware(h.GetProduct))).Methods("GET")

	// Admin routes
	router.HandleFunc("/api/products",
		h.metricsMiddleware("/api/products", AdminMiddleware(h.CreateProduct))).Methods("POST")
	router.HandleFunc("/api/products/{id}",
		h.metricsMiddleware("/api/products/{id}", AdminMiddleware(h.UpdateProduct))).Methods("PUT")
	router.HandleFunc("/api/products/{id}",
		h.metricsMiddleware("/api/products/{id}", AdminMiddleware(h.DeleteProduct))).Methods("DELETE")
}

// RegisterHealthCheck registers the health endpoint
func (h *ProductHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			respondMessage(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		respondMessage(w, http.StatusOK, "Catalog service is healthy")
	}).Methods("GET")
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := query.ListProductsQuery{
		Search: params.Get("search"),
		SortBy: params.Get("sortBy"),
	}

	if category := params.Get("category"); category != "" {
		q.Categories = strings.Split(category, ",")
	}

	minPrice, err := parsePriceBound(params.Get("minPrice"), "minPrice")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	q.MinPrice = minPrice

	maxPrice, err := parsePriceBound(params.Get("maxPrice"), "maxPrice")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	q.MaxPrice = maxPrice

	// Garbage page/limit values fall back to the defaults.
	q.Page, _ = strconv.Atoi(params.Get("page"))
	q.Limit, _ = strconv.Atoi(params.Get("limit"))

	page, err := h.listHandler.Handle(q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// GetProduct handles GET /api/products/{slug}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	product, err := h.getHandler.Handle(query.GetProductQuery{Slug: vars["slug"]})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// GetRelatedProducts handles GET /api/products/{slug}/related
func (h *ProductHandler) GetRelatedProducts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	related, err := h.relatedHandler.Handle(query.RelatedProductsQuery{Slug: vars["slug"]})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, related)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	priceRaw := r.FormValue("price")
	if priceRaw == "" {
		respondMessage(w, http.StatusBadRequest, "Product price is required")
		return
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Price must be a valid number")
		return
	}

	availability := true
	if raw := r.FormValue("availability"); raw != "" {
		availability, err = strconv.ParseBool(raw)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Availability must be true or false")
			return
		}
	}

	imagePath, err := h.storeUpload(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	cmd := command.CreateProductCommand{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Category:     r.FormValue("category"),
		Price:        domain.Price(price),
		Availability: availability,
		Image:        imagePath,
	}

	product, err := h.createHandler.Handle(cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.afterMutation(r, kafka.EventTypeProductCreated, product)

	respondJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	cmd := command.UpdateProductCommand{
		ID:          id,
		Title:       formString(r, "title"),
		Description: formString(r, "description"),
		Category:    formString(r, "category"),
	}

	if raw := formString(r, "price"); raw != nil {
		price, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Price must be a valid number")
			return
		}
		p := domain.Price(price)
		cmd.Price = &p
	}

	if raw := formString(r, "availability"); raw != nil {
		availability, err := strconv.ParseBool(*raw)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Availability must be true or false")
			return
		}
		cmd.Availability = &availability
	}

	imagePath, err := h.storeUpload(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	cmd.Image = imagePath

	product, err := h.updateHandler.Handle(cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.afterMutation(r, kafka.EventTypeProductUpdated, product)

	respondJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	product, err := h.repo.FindByID(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.deleteHandler.Handle(command.DeleteProductCommand{ID: id}); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.afterMutation(r, kafka.EventTypeProductDeleted, product)

	respondMessage(w, http.StatusOK, "Product deleted successfully")
}

// storeUpload saves the uploaded image, if any, and returns its public path
func (h *ProductHandler) storeUpload(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", domain.NewValidationError("Invalid image upload")
	}
	defer file.Close()

	path, err := h.assets.Save(header.Filename, file)
	if err != nil {
		return "", err
	}
	return path, nil
}

// afterMutation invalidates cached pages and announces the change
func (h *ProductHandler) afterMutation(r *http.Request, eventType string, product *domain.Product) {
	ctx := r.Context()

	h.cache.Invalidate(ctx)
	h.updateProductsMetric()

	if err := h.events.PublishProductChanged(ctx, kafka.ProductChangedEvent{
		EventType: eventType,
		ProductID: product.ID,
		Slug:      product.Slug,
		Title:     product.Title,
		Category:  product.Category,
		Price:     product.Price.Round(),
	}); err != nil {
		logger.Warn(ctx).Err(err).Str("event_type", eventType).Msg("Failed to publish catalog event")
	}
}

// updateProductsMetric refreshes the total products gauge
func (h *ProductHandler) updateProductsMetric() {
	if count, err := h.repo.Count(); err == nil {
		h.totalProducts.Set(float64(count))
	}
}

// respondError maps domain errors to status codes
func (h *ProductHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondMessage(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrSlugTaken):
		respondMessage(w, http.StatusConflict, "A product with the same slug already exists")
	default:
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return uint(id), true
}

func parsePriceBound(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.NewValidationError(name + " must be a valid number")
	}
	return &v, nil
}

// formString returns the form value if the field was supplied, nil otherwise
func formString(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	if values, ok := r.MultipartForm.Value[key]; ok && len(values) > 0 {
		return &values[0]
	}
	return nil
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondMessage sends a {"message": ...} response
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
