package domain

import (
	"database/sql/driver"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// Product categories. The set is fixed; validation rejects anything else.
const (
	CategoryClothing    = "Clothing"
	CategoryShoes       = "Shoes"
	CategoryElectronics = "Electronics"
	CategoryAccessories = "Accessories"
	CategoryHomeGarden  = "Home & Garden"
	CategorySports      = "Sports"
	CategoryBooks       = "Books"
	CategoryToys        = "Toys"
)

// Categories lists every valid product category
var Categories = []string{
	CategoryClothing,
	CategoryShoes,
	CategoryElectronics,
	CategoryAccessories,
	CategoryHomeGarden,
	CategorySports,
	CategoryBooks,
	CategoryToys,
}

// ValidCategory reports whether c is one of the fixed categories
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Price is a monetary amount that always serializes as a JSON number with
// exactly two fractional digits.
type Price float64

// Round returns the price rounded to two fractional digits
func (p Price) Round() float64 {
	return math.Round(float64(p)*100) / 100
}

// MarshalJSON renders the price with exactly two decimal digits
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(p.Round(), 'f', 2, 64)), nil
}

// UnmarshalJSON accepts a plain JSON number
func (p *Price) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("price must be a valid number: %w", err)
	}
	*p = Price(f)
	return nil
}

// Value stores the rounded amount in the decimal column
func (p Price) Value() (driver.Value, error) {
	return p.Round(), nil
}

// Scan reads the amount back from whatever numeric form the driver returns
func (p *Price) Scan(src interface{}) error {
	switch v := src.(type) {
	case float64:
		*p = Price(v)
	case int64:
		*p = Price(v)
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return fmt.Errorf("scan price %q: %w", v, err)
		}
		*p = Price(f)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("scan price %q: %w", v, err)
		}
		*p = Price(f)
	case nil:
		*p = 0
	default:
		return fmt.Errorf("scan price: unsupported type %T", src)
	}
	return nil
}

// Product represents a catalog entry
type Product struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"size:255;not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	Image        string    `json:"image" gorm:"not null"`
	Category     string    `json:"category" gorm:"not null;index"`
	Price        Price     `json:"price" gorm:"type:decimal(10,2);not null"`
	Availability bool      `json:"availability" gorm:"not null;default:true"`
	Slug         string    `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// Validate checks every field constraint and returns an aggregated
// ValidationError, or nil if the product is valid.
func (p *Product) Validate() error {
	verr := &ValidationError{}

	if p.Title == "" {
		verr.Add("Product title is required")
	} else if len(p.Title) < 3 || len(p.Title) > 255 {
		verr.Add("Title must be between 3 and 255 characters")
	}

	if p.Description == "" {
		verr.Add("Product description is required")
	}

	if p.Image == "" {
		verr.Add("Product image is required")
	}

	if p.Category == "" {
		verr.Add("Product category is required")
	} else if !ValidCategory(p.Category) {
		verr.Add(fmt.Sprintf("Category must be one of: %v", Categories))
	}

	if p.Price < 0 {
		verr.Add("Price cannot be negative")
	}

	if p.Slug == "" {
		verr.Add("Product slug is required")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// SortBy values accepted by List
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

// Default pagination bounds
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListFilter narrows, orders and pages the product list. All filters are
// optional and combine with logical AND.
type ListFilter struct {
	Search     string
	Categories []string
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string
	Page       int
	Limit      int
}

// Normalize applies pagination defaults and bounds
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
}

// Offset returns the row offset for the current page
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ProductRepository defines the contract for product data access
type ProductRepository interface {
	Create(product *Product) error
	FindByID(id uint) (*Product, error)
	FindBySlug(slug string) (*Product, error)
	FindRelated(product *Product, limit int) ([]Product, error)
	List(filter ListFilter) ([]Product, int64, error)
	SlugTaken(slug string, excludeID uint) (bool, error)
	Update(product *Product) error
	Delete(id uint) error
	Count() (int64, error)
}

// AssetStore binds uploaded image files to product records. Save returns the
// public path recorded on the product; Remove treats a missing file as a
// no-op.
type AssetStore interface {
	Save(originalName string, r io.Reader) (string, error)
	Remove(publicPath string) error
	Exists(publicPath string) bool
}
