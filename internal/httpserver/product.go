package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/epinhell/internal/logging"
	"github.com/Skotchmaster/epinhell/internal/models"
	"github.com/Skotchmaster/epinhell/internal/transport"
	"github.com/Skotchmaster/epinhell/internal/util"
)

type CatalogAPI interface {
	CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error)
	ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uint, req transport.ProductRequest) (*models.Product, error)
	PatchProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
}

type CatalogHTTP struct {
	Svc CatalogAPI
}

const productsPath = "/products"

// window reads page/size. Without size the listing is returned whole.
func window(c echo.Context) (page, offset, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	if c.QueryParam("size") == "" {
		return 1, 0, 0
	}
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit = util.Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return page, offset, limit
}

func (h *CatalogHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list")

	page, offset, limit := window(c)
	total, items, err := h.Svc.ListProducts(ctx, offset, limit)
	if err != nil {
		return fail(c, l, "list_products_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"meta":  util.NewMeta(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	q := c.QueryParam("q")
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize))

	total, items, err := h.Svc.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return fail(c, l, "search_products_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"query": q,
		"items": items,
		"meta":  util.NewMeta(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get")

	id, err := paramID(c)
	if err != nil {
		return badRequest(l, "get_product_error", "invalid id", err)
	}

	prod, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(c, l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create")

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product_error", "invalid body", err)
	}

	prod, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(c, l, "create_product_error", err)
	}

	l.Info("product_created", "product_id", prod.ID)
	return done(c, http.StatusCreated, productsPath, "", prod)
}

func (h *CatalogHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update")

	id, err := paramID(c)
	if err != nil {
		return badRequest(l, "update_product_error", "invalid id", err)
	}
	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_product_error", "invalid body", err)
	}

	prod, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return fail(c, l, "update_product_error", err)
	}

	l.Info("product_updated", "product_id", prod.ID, "version", prod.Version)
	return done(c, http.StatusOK, productsPath, "", prod)
}

func (h *CatalogHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch")

	id, err := paramID(c)
	if err != nil {
		return badRequest(l, "patch_product_error", "invalid id", err)
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_product_error", "invalid body", err)
	}

	prod, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		return fail(c, l, "patch_product_error", err)
	}

	l.Info("product_patched", "product_id", prod.ID, "version", prod.Version)
	return done(c, http.StatusOK, productsPath, "", prod)
}

func (h *CatalogHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete")

	id, err := paramID(c)
	if err != nil {
		return badRequest(l, "delete_product_error", "invalid id", err)
	}

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(c, l, "delete_product_error", err)
	}

	l.Info("product_deleted", "product_id", id)
	return done(c, http.StatusOK, productsPath, "", nil)
}
