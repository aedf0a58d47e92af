package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/game-store/internal/apperror"
	"github.com/sakif/game-store/internal/model"
	"github.com/sakif/game-store/internal/repository"
)

// descriptionPlaceholder is returned for products listed without one.
const descriptionPlaceholder = "No description"

// ImageStore is the slice of the upload store the catalog needs. Declaring
// the interface here (at the consumer) lets tests substitute an in-memory
// fake without touching the real filesystem.
type ImageStore interface {
	Save(r io.Reader, originalName string) (string, error)
}

// CatalogService composes the catalog store and the image intake into the
// product read/create operations.
type CatalogService struct {
	products repository.ProductRepository
	images   ImageStore
	logger   *slog.Logger
}

// NewCatalogService creates a CatalogService with all required dependencies.
func NewCatalogService(products repository.ProductRepository, images ImageStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		images:   images,
		logger:   logger,
	}
}

// CreateProductInput carries the raw multipart form fields of a product
// create. Price, PlatformID, and Used arrive as strings because multipart
// forms have no types — the service owns the coercion so every caller gets
// identical validation.
type CreateProductInput struct {
	Name        string    // nombre_juego
	Description string    // descripcion
	Price       string    // precio
	PlatformID  string    // id_plataforma
	Used        string    // usado — "true" means pre-owned
	Image       io.Reader // nil when no image part was uploaded
	ImageName   string    // original filename of the image part
}

// List returns every product in the catalog. An empty store yields an
// empty slice, never nil.
func (s *CatalogService) List(ctx context.Context) ([]model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing products: %w", err)
	}

	return products, nil
}

// Get returns the product detail: all product fields plus the full set of
// platform associations. Unknown IDs fail with NotFound.
func (s *CatalogService) Get(ctx context.Context, id int64) (*model.ProductDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	detail, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service/catalog: getting product %d: %w", id, err)
	}

	if detail.Description == "" {
		detail.Description = descriptionPlaceholder
	}

	return detail, nil
}

// Create validates the input, stores the image (if any), and inserts the
// product together with its platform association.
//
// Name, price, and platform are required. Price is accepted as provided —
// no range check — but must parse as a number. The used flag is the literal
// string "true" or anything else (false), matching what FormData sends.
//
// The image is written to disk BEFORE the database writes because the
// product row records its URL. If the insert then fails, the stored file is
// left behind with nothing pointing at it; orphaned files are harmless and
// a cleanup sweep can reclaim them.
func (s *CatalogService) Create(ctx context.Context, input CreateProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("nombre_juego", "product name is required")
	}
	if strings.TrimSpace(input.Price) == "" {
		return nil, apperror.ValidationFailed("precio", "price is required")
	}
	if strings.TrimSpace(input.PlatformID) == "" {
		return nil, apperror.ValidationFailed("id_plataforma", "platform is required")
	}

	price, err := strconv.ParseFloat(input.Price, 64)
	if err != nil {
		return nil, apperror.ValidationFailed("precio", "price must be a number")
	}

	platformID, err := strconv.ParseInt(input.PlatformID, 10, 64)
	if err != nil {
		return nil, apperror.ValidationFailed("id_plataforma", "platform id must be a number")
	}

	used := input.Used == "true"

	var imageURL *string
	if input.Image != nil {
		url, err := s.images.Save(input.Image, input.ImageName)
		if err != nil {
			return nil, fmt.Errorf("service/catalog: storing image for %q: %w", name, err)
		}
		imageURL = &url
	}

	product := &model.Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       price,
		ReleaseDate: time.Now().Format("2006-01-02"), // server clock, not client-supplied
		ImageURL:    imageURL,
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.products.CreateProduct(ctx, product, platformID, used); err != nil {
		return nil, fmt.Errorf("service/catalog: creating product %q: %w", name, err)
	}

	s.logger.Info("product created",
		slog.Int64("id", product.ID),
		slog.String("name", product.Name),
		slog.Int64("platform", platformID),
		slog.Bool("used", used),
	)

	return product, nil
}
