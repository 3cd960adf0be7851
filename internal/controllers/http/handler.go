package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/pharmakart/pharmacy-api/internal/domain"
	"github.com/pharmakart/pharmacy-api/internal/notify"
	"github.com/pharmakart/pharmacy-api/internal/repository"
	"github.com/pharmakart/pharmacy-api/internal/services"
)

type CatalogService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id uint) (*domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id uint) error

	ListProducts(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id uint) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id uint) error

	ListVariants(ctx context.Context, productID uint) ([]domain.ProductVariant, error)
	GetVariant(ctx context.Context, id uint) (*domain.ProductVariant, error)
	CreateVariant(ctx context.Context, v *domain.ProductVariant) error
	UpdateVariant(ctx context.Context, v *domain.ProductVariant) error
	DeleteVariant(ctx context.Context, id uint) error
}

type OrderService interface {
	PlaceOrder(ctx context.Context, in services.PlaceOrderInput) (*domain.Order, error)
	GetOrderByToken(ctx context.Context, token string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, token, status string) (*domain.Order, error)
}

type PrescriptionNotifier interface {
	Prescription(req notify.PrescriptionRequest) error
}

type Handler struct {
	catalog   CatalogService
	orders    OrderService
	notifier  PrescriptionNotifier
	policy    Policy
	jwtSecret string
}

func NewHandler(catalog CatalogService, orders OrderService, notifier PrescriptionNotifier, jwtSecret string) *Handler {
	return &Handler{
		catalog:   catalog,
		orders:    orders,
		notifier:  notifier,
		policy:    DefaultPolicy(),
		jwtSecret: jwtSecret,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(Authenticate(h.jwtSecret))

	allow := func(resource, operation string) gin.HandlerFunc {
		return Authorize(h.policy, resource, operation)
	}

	r.GET("/categories", allow("categories", "list"), h.ListCategories)
	r.GET("/categories/:id", allow("categories", "retrieve"), h.GetCategory)
	r.POST("/categories", allow("categories", "create"), h.CreateCategory)
	r.PUT("/categories/:id", allow("categories", "update"), h.UpdateCategory)
	r.DELETE("/categories/:id", allow("categories", "delete"), h.DeleteCategory)

	r.GET("/products", allow("products", "list"), h.ListProducts)
	r.GET("/products/:id", allow("products", "retrieve"), h.GetProduct)
	r.POST("/products", allow("products", "create"), h.CreateProduct)
	r.PUT("/products/:id", allow("products", "update"), h.UpdateProduct)
	r.DELETE("/products/:id", allow("products", "delete"), h.DeleteProduct)

	r.GET("/products/:id/variants", allow("variants", "list"), h.ListProductVariants)
	r.POST("/products/:id/variants", allow("variants", "create"), h.CreateProductVariant)
	r.GET("/products/:id/variants/:variantID", allow("variants", "retrieve"), h.GetProductVariant)
	r.PUT("/products/:id/variants/:variantID", allow("variants", "update"), h.UpdateProductVariant)
	r.PATCH("/products/:id/variants/:variantID", allow("variants", "update"), h.UpdateProductVariant)
	r.DELETE("/products/:id/variants/:variantID", allow("variants", "delete"), h.DeleteProductVariant)

	r.GET("/variants", allow("variants", "list"), h.ListVariants)
	r.GET("/variants/:id", allow("variants", "retrieve"), h.GetVariant)
	r.POST("/variants", allow("variants", "create"), h.CreateVariant)
	r.PUT("/variants/:id", allow("variants", "update"), h.UpdateVariant)
	r.DELETE("/variants/:id", allow("variants", "delete"), h.DeleteVariant)

	r.POST("/orders", allow("orders", "create"), h.CreateOrder)
	r.GET("/orders", allow("orders", "list"), h.ListOrders)
	r.GET("/orders/:orderID", allow("orders", "retrieve"), h.GetOrder)
	r.PATCH("/orders/:orderID/status", allow("orders", "update"), h.UpdateOrderStatus)

	r.POST("/prescription-request", allow("prescription-request", "create"), h.CreatePrescriptionRequest)
}

// respondError maps the error taxonomy onto status codes: validation 400,
// unknown references 404, privilege failures 403, everything else a generic
// 500 with the detail kept out of the response body.
func respondError(c *gin.Context, err error) {
	var authErr *domain.AuthorizationError
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &authErr):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		zlog.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be numeric"})
		return 0, false
	}
	return uint(id), true
}

// --- Categories ---

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) GetCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	category, err := h.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := &domain.Category{Name: req.Name, Description: req.Description}
	if err := h.catalog.CreateCategory(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := &domain.Category{ID: id, Name: req.Name, Description: req.Description}
	if err := h.catalog.UpdateCategory(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

// --- Products ---

func (h *Handler) ListProducts(c *gin.Context) {
	var filter repository.ProductFilter
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category_id must be numeric"})
			return
		}
		cid := uint(id)
		filter.CategoryID = &cid
	}
	filter.PopularOnly = c.Query("popular") == "true"

	products, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func productFromRequest(req ProductRequest) *domain.Product {
	return &domain.Product{
		Name:        req.Name,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Price:       req.Price,
		OldPrice:    req.OldPrice,
		Stock:       req.Stock,
		Image:       req.Image,
		IsPopular:   req.IsPopular,
	}
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product := productFromRequest(req)
	if err := h.catalog.CreateProduct(c.Request.Context(), product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product := productFromRequest(req)
	product.ID = id
	if err := h.catalog.UpdateProduct(c.Request.Context(), product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// --- Variants ---

func (h *Handler) ListVariants(c *gin.Context) {
	var productID uint
	if raw := c.Query("product_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product_id must be numeric"})
			return
		}
		productID = uint(id)
	}
	variants, err := h.catalog.ListVariants(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, variants)
}

func (h *Handler) ListProductVariants(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	variants, err := h.catalog.ListVariants(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, variants)
}

func (h *Handler) GetVariant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	variant, err := h.catalog.GetVariant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

func (h *Handler) CreateVariant(c *gin.Context) {
	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	variant := &domain.ProductVariant{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
	}
	if err := h.catalog.CreateVariant(c.Request.Context(), variant); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, variant)
}

// CreateProductVariant is the nested form: the product id comes from the
// path and wins over anything in the body.
func (h *Handler) CreateProductVariant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	variant := &domain.ProductVariant{
		ProductID: id,
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
	}
	if err := h.catalog.CreateVariant(c.Request.Context(), variant); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, variant)
}

// variantInProduct resolves the nested detail path, rejecting variant ids
// that belong to a different product.
func (h *Handler) variantInProduct(c *gin.Context) (*domain.ProductVariant, bool) {
	productID, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	variantID, ok := idParam(c, "variantID")
	if !ok {
		return nil, false
	}
	variant, err := h.catalog.GetVariant(c.Request.Context(), variantID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if variant.ProductID != productID {
		respondError(c, domain.ErrVariantNotFound)
		return nil, false
	}
	return variant, true
}

func (h *Handler) GetProductVariant(c *gin.Context) {
	variant, ok := h.variantInProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, variant)
}

func (h *Handler) UpdateProductVariant(c *gin.Context) {
	current, ok := h.variantInProduct(c)
	if !ok {
		return
	}
	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	variant := &domain.ProductVariant{
		ID:        current.ID,
		ProductID: current.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
	}
	if err := h.catalog.UpdateVariant(c.Request.Context(), variant); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

func (h *Handler) DeleteProductVariant(c *gin.Context) {
	variant, ok := h.variantInProduct(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteVariant(c.Request.Context(), variant.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "variant deleted"})
}

func (h *Handler) UpdateVariant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	variant := &domain.ProductVariant{
		ID:        id,
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
	}
	if err := h.catalog.UpdateVariant(c.Request.Context(), variant); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

func (h *Handler) DeleteVariant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteVariant(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "variant deleted"})
}

// --- Orders ---

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := services.PlaceOrderInput{
		Email:           req.Email,
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	}
	if p, ok := CurrentPrincipal(c); ok && p.UserID != "" {
		userID := p.UserID
		in.UserID = &userID
		in.CustomerName = p.Name
	}
	for _, item := range req.Items {
		in.Lines = append(in.Lines, domain.OrderLine{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	token := c.Param("orderID")
	order, err := h.orders.GetOrderByToken(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	token := c.Param("orderID")
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), token, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// --- Prescription requests ---

func (h *Handler) CreatePrescriptionRequest(c *gin.Context) {
	var req PrescriptionRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.notifier.Prescription(notify.PrescriptionRequest{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "prescription request submitted"})
}
