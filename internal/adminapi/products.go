package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/deliverdesk/deliverdesk/internal/catalog"
	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/internal/webserver"
)

type productPayload struct {
	Name          string                   `json:"name" validate:"required,min=1,max=200"`
	Category      string                   `json:"category" validate:"required"`
	Price         float64                  `json:"price" validate:"gte=0"`
	OriginalPrice *float64                 `json:"original_price"`
	Description   string                   `json:"description" validate:"max=2000"`
	Image         string                   `json:"image" validate:"max=1024"`
	Active        *bool                    `json:"active"`
	Weighable     bool                     `json:"weighable"`
	PricePerKg    *float64                 `json:"price_per_kg"`
	Complements   []domain.ComplementGroup `json:"complements"`
	Sizes         []domain.ProductSize     `json:"sizes"`
	Availability  *domain.Availability     `json:"availability"`
}

type productUpdatePayload struct {
	Name          *string                   `json:"name" validate:"omitempty,min=1,max=200"`
	Category      *string                   `json:"category"`
	Price         *float64                  `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice *float64                  `json:"original_price"`
	Description   *string                   `json:"description" validate:"omitempty,max=2000"`
	Image         *string                   `json:"image" validate:"omitempty,max=1024"`
	Active        *bool                     `json:"active"`
	Weighable     *bool                     `json:"weighable"`
	PricePerKg    *float64                  `json:"price_per_kg"`
	Complements   *[]domain.ComplementGroup `json:"complements"`
	Sizes         *[]domain.ProductSize     `json:"sizes"`
	Availability  *domain.Availability      `json:"availability"`
}

// registerProductRoutes registers product CRUD endpoints. The public
// listing only ever sees active rows; everything else requires an
// operator token.
func registerProductRoutes() {
	webserver.ApiGET("/catalog/products", listProducts)
	webserver.ApiGET("/catalog/products/:id", getProduct)
	webserver.ApiPOST("/catalog/products", createProduct)
	webserver.ApiPUT("/catalog/products/:id", updateProduct)
	webserver.ApiDELETE("/catalog/products/:id", deleteProduct)

	webserver.PubGET("/catalog/products", listPublicProducts)
	webserver.PubGET("/catalog/products/:id", getPublicProduct)
}

func listProducts(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	page, pageSize := parsePagination(c)
	filter := catalog.ListFilter{
		Query:    strings.TrimSpace(c.QueryParam("q")),
		Category: strings.TrimSpace(c.QueryParam("category")),
	}
	rows, total, err := catalogSvc.List(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return failFromService(c, err)
	}
	return paged(c, rows, total, page, pageSize)
}

// listPublicProducts serves the anonymous storefront: active rows only.
func listPublicProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)
	filter := catalog.ListFilter{
		Query:      strings.TrimSpace(c.QueryParam("q")),
		Category:   strings.TrimSpace(c.QueryParam("category")),
		ActiveOnly: true,
	}
	rows, total, err := catalogSvc.List(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return failFromService(c, err)
	}
	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := catalogSvc.Get(c.Request().Context(), id)
	if err != nil {
		return failFromService(c, err)
	}
	return ok(c, p)
}

func getPublicProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := catalogSvc.Get(c.Request().Context(), id)
	if err != nil {
		return failFromService(c, err)
	}
	if !p.Active {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	if !domain.ValidProductCategory(payload.Category) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown product category", domain.ProductCategories)
	}
	if payload.Weighable && payload.PricePerKg == nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "price_per_kg is required for weighable products", nil)
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}
	p := &domain.Product{
		Name:          strings.TrimSpace(payload.Name),
		Category:      payload.Category,
		Price:         payload.Price,
		OriginalPrice: payload.OriginalPrice,
		Description:   strings.TrimSpace(payload.Description),
		Image:         strings.TrimSpace(payload.Image),
		Active:        active,
		Weighable:     payload.Weighable,
		PricePerKg:    payload.PricePerKg,
		Complements:   payload.Complements,
		Sizes:         payload.Sizes,
		Availability:  payload.Availability,
	}

	created, err := catalogSvc.Create(c.Request().Context(), p)
	if err != nil {
		return failFromService(c, err)
	}
	auditLog(c, "product_create", created.Name)
	return ok(c, created)
}

func updateProduct(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var payload productUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	if payload.Category != nil && !domain.ValidProductCategory(*payload.Category) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown product category", domain.ProductCategories)
	}

	patch := map[string]interface{}{}
	if payload.Name != nil {
		patch["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Category != nil {
		patch["category"] = *payload.Category
	}
	if payload.Price != nil {
		patch["price"] = *payload.Price
	}
	if payload.OriginalPrice != nil {
		patch["original_price"] = *payload.OriginalPrice
	}
	if payload.Description != nil {
		patch["description"] = strings.TrimSpace(*payload.Description)
	}
	if payload.Image != nil {
		patch["image"] = strings.TrimSpace(*payload.Image)
	}
	if payload.Active != nil {
		patch["active"] = *payload.Active
	}
	if payload.Weighable != nil {
		patch["weighable"] = *payload.Weighable
	}
	if payload.PricePerKg != nil {
		patch["price_per_kg"] = *payload.PricePerKg
	}
	if payload.Complements != nil {
		patch["complements"] = *payload.Complements
	}
	if payload.Sizes != nil {
		patch["sizes"] = *payload.Sizes
	}
	if payload.Availability != nil {
		patch["availability"] = payload.Availability
	}

	updated, err := catalogSvc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return failFromService(c, err)
	}
	auditLog(c, "product_update", updated.Name)
	return ok(c, updated)
}

func deleteProduct(c echo.Context) error {
	if err := webserver.RequireOperator(c); err != nil {
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", "Operator access required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := catalogSvc.Delete(c.Request().Context(), id); err != nil {
		return failFromService(c, err)
	}
	auditLog(c, "product_delete", strconv.FormatInt(id, 10))
	return ok(c, map[string]interface{}{"id": id})
}
