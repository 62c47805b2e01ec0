package handlers

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"flashdeal/internal/apperr"
	"flashdeal/internal/imaging"
	"flashdeal/internal/middleware"
	"flashdeal/internal/models"
	"flashdeal/internal/repositories"
	"flashdeal/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
)

const productImageField = "productImage"

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	admin := middleware.RequireRoles(models.RoleAdmin)
	seller := middleware.RequireRoles(models.RoleSeller)

	router.Get("/products", h.HandleListApproved)
	router.Get("/products/pending", auth, admin, h.HandleListPending)
	router.Put("/products/:id/approve", auth, admin, h.HandleApprove)
	router.Post("/products", auth, seller, h.HandleCreate)
	router.Put("/products/:id", auth, seller, h.HandleUpdate)
	router.Delete("/products/:id", auth, middleware.RequireRoles(models.RoleSeller, models.RoleAdmin), h.HandleDelete)
	router.Get("/Sellerproducts", auth, seller, h.HandleSellerProducts)
}

// ProductRequest carries product fields from JSON or multipart form bodies.
// Absent fields stay nil.
type ProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=3,max=255"`
	Description *string          `json:"description" validate:"omitempty,min=5"`
	Price       *decimal.Decimal `json:"price"`
	Discount    *decimal.Decimal `json:"discount"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
	DealExpiry  *time.Time       `json:"deal_expiry"`
	CategoryID  *uint            `json:"category_id" validate:"omitempty,min=1"`
}

func (r ProductRequest) patch() repositories.ProductPatch {
	return repositories.ProductPatch{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Discount:    r.Discount,
		Stock:       r.Stock,
		DealExpiry:  r.DealExpiry,
	}
}

func (r ProductRequest) input() services.ProductInput {
	in := services.ProductInput{
		CategoryID: r.CategoryID,
		DealExpiry: r.DealExpiry,
	}
	if r.Name != nil {
		in.Name = *r.Name
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	if r.Price != nil {
		in.Price = *r.Price
	}
	if r.Discount != nil {
		in.Discount = *r.Discount
	}
	if r.Stock != nil {
		in.Stock = *r.Stock
	}
	return in
}

// readProduct parses the product fields and the optional image upload. The
// returned closer must be called once the image has been consumed.
func readProduct(c *fiber.Ctx) (ProductRequest, io.Reader, func(), error) {
	var req ProductRequest
	noop := func() {}

	if !isMultipart(c) {
		if err := bind(c, &req); err != nil {
			return req, nil, noop, err
		}
		return req, nil, noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return req, nil, noop, apperr.Validation("Invalid multipart body")
	}
	if req, err = productFromForm(form.Value); err != nil {
		return req, nil, noop, err
	}
	if err := check(&req); err != nil {
		return req, nil, noop, err
	}

	file, err := c.FormFile(productImageField)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) {
			return req, nil, noop, nil
		}
		return req, nil, noop, apperr.Validation("Invalid image upload")
	}
	if file.Size > imaging.MaxUploadSize {
		return req, nil, noop, apperr.Validation("Image must be 5MB or smaller")
	}
	if !imaging.AllowedExtension(file.Filename) {
		return req, nil, noop, apperr.Validation("Only images are allowed")
	}
	f, err := file.Open()
	if err != nil {
		return req, nil, noop, apperr.Internal("failed to open upload", err)
	}
	return req, f, func() { f.Close() }, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

func productFromForm(values map[string][]string) (ProductRequest, error) {
	var req ProductRequest
	get := func(key string) (string, bool) {
		v, ok := values[key]
		if !ok || len(v) == 0 || v[0] == "" {
			return "", false
		}
		return v[0], true
	}

	if v, ok := get("name"); ok {
		req.Name = &v
	}
	if v, ok := get("description"); ok {
		req.Description = &v
	}
	for key, dst := range map[string]**decimal.Decimal{"price": &req.Price, "discount": &req.Discount} {
		if v, ok := get(key); ok {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return req, apperr.Validation(key + " must be a number")
			}
			*dst = &d
		}
	}
	if v, ok := get("stock"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, apperr.Validation("stock must be an integer")
		}
		req.Stock = &n
	}
	if v, ok := get("category_id"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return req, apperr.Validation("category_id must be an integer")
		}
		id := uint(n)
		req.CategoryID = &id
	}
	if v, ok := get("deal_expiry"); ok {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, apperr.Validation("deal_expiry must be an ISO 8601 date")
		}
		req.DealExpiry = &t
	}
	return req, nil
}

// HandleCreate adds an unapproved product for the calling seller.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	req, image, done, err := readProduct(c)
	if err != nil {
		return err
	}
	defer done()

	product, err := h.service.Create(c.UserContext(), p.UserID, req.input(), image)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Product added successfully",
		"productId": product.ID,
	})
}

// HandleUpdate applies the provided fields to one of the seller's products.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	req, image, done, err := readProduct(c)
	if err != nil {
		return err
	}
	defer done()

	if err := h.service.Update(c.UserContext(), id, p.UserID, req.patch(), image); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Product updated successfully")
}

// HandleDelete removes a product. Sellers may only remove their own.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id, p); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Product deleted successfully")
}

func (h *ProductHandler) HandleApprove(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Approve(c.UserContext(), id); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Product approved successfully")
}

func (h *ProductHandler) HandleListPending(c *fiber.Ctx) error {
	products, err := h.service.ListPending(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// HandleListApproved serves the public catalog. Query: category_id,
// search_term, page, limit.
func (h *ProductHandler) HandleListApproved(c *fiber.Ctx) error {
	products, err := h.service.ListApproved(c.UserContext(), filterFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleSellerProducts(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	products, err := h.service.ListSellerProducts(c.UserContext(), p.UserID, filterFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(products)
}

func filterFromQuery(c *fiber.Ctx) repositories.ProductFilter {
	f := repositories.ProductFilter{
		SearchTerm: c.Query("search_term"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 0),
	}
	if id := c.QueryInt("category_id", 0); id > 0 {
		cid := uint(id)
		f.CategoryID = &cid
	}
	return f
}
