package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"flashdeal/internal/apperr"
	"flashdeal/internal/events"
	"flashdeal/internal/models"
	"flashdeal/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ListingCache caches public product pages. Implementations swallow their
// own failures; a broken cache only costs a database round trip.
type ListingCache interface {
	Get(ctx context.Context, filter repositories.ProductFilter) ([]models.ProductListing, bool)
	Set(ctx context.Context, filter repositories.ProductFilter, listings []models.ProductListing)
	Invalidate(ctx context.Context)
}

// ImageStore persists an uploaded image and returns its public URL. Remove
// discards an image saved for a write that did not land.
type ImageStore interface {
	Save(r io.Reader) (string, error)
	Remove(url string) error
}

// ProductInput carries the fields of a new product.
type ProductInput struct {
	CategoryID  *uint
	Name        string
	Description string
	Price       decimal.Decimal
	Discount    decimal.Decimal
	Stock       int
	DealExpiry  *time.Time
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	cache     ListingCache
	images    ImageStore
	publisher events.Publisher
	log       *zap.Logger
}

// NewProductService creates a new ProductService. cache may be nil.
func NewProductService(repo repositories.ProductRepository, cache ListingCache, images ImageStore, publisher events.Publisher, log *zap.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		cache:     cache,
		images:    images,
		publisher: publisher,
		log:       log.Named("products"),
	}
}

// NormalizeFilter applies the paging defaults.
func NormalizeFilter(f repositories.ProductFilter) repositories.ProductFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	f.SearchTerm = strings.TrimSpace(f.SearchTerm)
	return f
}

func checkPricing(price, discount *decimal.Decimal, stock *int) error {
	if price != nil && !price.IsPositive() {
		return apperr.Validation("price must be positive")
	}
	if discount != nil && (discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100))) {
		return apperr.Validation("discount must be between 0 and 100")
	}
	if stock != nil && *stock < 0 {
		return apperr.Validation("stock must not be negative")
	}
	return nil
}

// Create stores a new unapproved product for sellerID. image may be nil.
func (s *ProductService) Create(ctx context.Context, sellerID uint, in ProductInput, image io.Reader) (*models.Product, error) {
	if len(strings.TrimSpace(in.Name)) < 3 {
		return nil, apperr.Validation("name must be at least 3 characters")
	}
	if err := checkPricing(&in.Price, &in.Discount, &in.Stock); err != nil {
		return nil, err
	}

	product := &models.Product{
		SellerID:    sellerID,
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Discount:    in.Discount,
		Stock:       in.Stock,
		DealExpiry:  in.DealExpiry,
	}
	if image != nil {
		url, err := s.saveImage(image)
		if err != nil {
			return nil, err
		}
		product.ProductImg = &url
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.discardImage(product.ProductImg)
		return nil, apperr.Internal("failed to create product", err)
	}
	s.log.Info("product created", zap.Uint("product_id", product.ID), zap.Uint("seller_id", sellerID))
	return product, nil
}

func (s *ProductService) saveImage(image io.Reader) (string, error) {
	if s.images == nil {
		return "", apperr.Internal("image storage not configured", nil)
	}
	url, err := s.images.Save(image)
	if err != nil {
		return "", apperr.Validation("Only images are allowed")
	}
	return url, nil
}

func (s *ProductService) discardImage(url *string) {
	if url == nil {
		return
	}
	if err := s.images.Remove(*url); err != nil {
		s.log.Warn("failed to remove orphaned image", zap.String("url", *url), zap.Error(err))
	}
}

// ListApproved returns the public listing, served from cache when possible.
func (s *ProductService) ListApproved(ctx context.Context, filter repositories.ProductFilter) ([]models.ProductListing, error) {
	filter = NormalizeFilter(filter)
	if s.cache != nil {
		if listings, ok := s.cache.Get(ctx, filter); ok {
			return listings, nil
		}
	}

	listings, err := s.repo.ListApproved(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("failed to list products", err)
	}
	if listings == nil {
		listings = []models.ProductListing{}
	}
	if s.cache != nil {
		s.cache.Set(ctx, filter, listings)
	}
	return listings, nil
}

// ListSellerProducts returns every product of sellerID, approved or not.
func (s *ProductService) ListSellerProducts(ctx context.Context, sellerID uint, filter repositories.ProductFilter) ([]models.ProductListing, error) {
	listings, err := s.repo.ListBySeller(ctx, sellerID, NormalizeFilter(filter))
	if err != nil {
		return nil, apperr.Internal("failed to list seller products", err)
	}
	if listings == nil {
		listings = []models.ProductListing{}
	}
	return listings, nil
}

// ListPending returns products awaiting approval.
func (s *ProductService) ListPending(ctx context.Context) ([]models.ProductListing, error) {
	listings, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list pending products", err)
	}
	if listings == nil {
		listings = []models.ProductListing{}
	}
	return listings, nil
}

// Approve makes a product publicly visible. Approval is one way.
func (s *ProductService) Approve(ctx context.Context, id uint) error {
	n, err := s.repo.Approve(ctx, id)
	if err != nil {
		return apperr.Internal("failed to approve product", err)
	}
	if n == 0 {
		return apperr.NotFound("Product not found or already approved")
	}
	s.invalidate(ctx)

	event := events.New(events.ProductApproved)
	event.ProductID = id
	publish(ctx, s.log, s.publisher, event)
	return nil
}

// Update applies patch to a product owned by sellerID. A non-nil image
// replaces the product image.
func (s *ProductService) Update(ctx context.Context, id, sellerID uint, patch repositories.ProductPatch, image io.Reader) error {
	if patch.Name != nil && len(strings.TrimSpace(*patch.Name)) < 3 {
		return apperr.Validation("name must be at least 3 characters")
	}
	if err := checkPricing(patch.Price, patch.Discount, patch.Stock); err != nil {
		return err
	}
	if image != nil {
		url, err := s.saveImage(image)
		if err != nil {
			return err
		}
		patch.ProductImg = &url
	}
	if len(patch.Columns()) == 0 {
		return apperr.Validation("No valid fields provided for update")
	}

	n, err := s.repo.Update(ctx, id, sellerID, patch)
	if err != nil {
		s.discardImage(patch.ProductImg)
		return apperr.Internal("failed to update product", err)
	}
	if n == 0 {
		s.discardImage(patch.ProductImg)
		return apperr.NotFound("Product not found or you do not have permission to update this product")
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a product. Sellers may only delete their own; admins may
// delete any product to reject it.
func (s *ProductService) Delete(ctx context.Context, id uint, actor Principal) error {
	var owner *uint
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleSeller:
		owner = &actor.UserID
	default:
		return apperr.Forbidden("Access Denied: No Permissions")
	}

	n, err := s.repo.Delete(ctx, id, owner)
	if err != nil {
		if repositories.IsForeignKeyViolation(err) {
			return apperr.Conflict("Product has orders and cannot be deleted")
		}
		return apperr.Internal("failed to delete product", err)
	}
	if n == 0 {
		return apperr.NotFound("Product not found or you do not have permission to delete this product")
	}
	s.invalidate(ctx)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// publish sends event without failing the caller. Notifications are best
// effort.
func publish(ctx context.Context, log *zap.Logger, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

// errNotFound reports whether err wraps the repository not-found sentinel.
func errNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}
