package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/epinhell/internal/logging"
	authmw "github.com/Skotchmaster/epinhell/internal/middleware/auth"
	"github.com/Skotchmaster/epinhell/internal/models"
	"github.com/Skotchmaster/epinhell/internal/service"
	"github.com/Skotchmaster/epinhell/internal/transport"
)

type CartAPI interface {
	AddItem(ctx context.Context, userID string, productID uint, quantity int) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, userID string, itemID uint, delta int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID string, itemID uint) error
	Clear(ctx context.Context, userID string) error
	ViewCart(ctx context.Context, userID string) (*service.CartView, error)
	Checkout(ctx context.Context, userID string) (*service.Receipt, error)
}

type CartHTTP struct {
	Svc CartAPI
}

const (
	cartPath    = "/cart"
	addedToCart = "Product successfully added to the cart!"
)

var errNoUser = errors.New("no user in request context")

func currentUser(c echo.Context) (string, error) {
	uid, ok := authmw.UserID(c)
	if !ok {
		return "", errors.Join(service.ErrUnauthenticated, errNoUser)
	}
	return uid, nil
}

func (h *CartHTTP) View(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.view")

	uid, err := currentUser(c)
	if err != nil {
		return fail(c, l, "view_cart_error", err)
	}

	view, err := h.Svc.ViewCart(ctx, uid)
	if err != nil {
		return fail(c, l, "view_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	uid, err := currentUser(c)
	if err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	item, err := h.Svc.AddItem(ctx, uid, req.ProductID, qty)
	if err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "user_id", uid, "product_id", req.ProductID, "quantity", item.Quantity)
	return done(c, http.StatusOK, productsPath, addedToCart, item)
}

func (h *CartHTTP) Quantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.quantity")

	uid, err := currentUser(c)
	if err != nil {
		return fail(c, l, "update_quantity_error", err)
	}
	itemID, err := paramID(c)
	if err != nil {
		return badRequest(l, "update_quantity_error", "invalid item id", err)
	}

	var req transport.QuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_quantity_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, l, "update_quantity_error", err)
	}
	delta := 1
	if req.Action == "decrease" {
		delta = -1
	}

	item, err := h.Svc.UpdateQuantity(ctx, uid, itemID, delta)
	if err != nil {
		return fail(c, l, "update_quantity_error", err)
	}
	return done(c, http.StatusOK, cartPath, "", item)
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	uid, err := currentUser(c)
	if err != nil {
		return fail(c, l, "remove_from_cart_error", err)
	}
	itemID, err := paramID(c)
	if err != nil {
		return badRequest(l, "remove_from_cart_error", "invalid item id", err)
	}

	if err := h.Svc.RemoveItem(ctx, uid, itemID); err != nil {
		return fail(c, l, "remove_from_cart_error", err)
	}
	return done(c, http.StatusOK, cartPath, "", nil)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	uid, err := currentUser(c)
	if err != nil {
		return fail(c, l, "clear_cart_error", err)
	}
	if err := h.Svc.Clear(ctx, uid); err != nil {
		return fail(c, l, "clear_cart_error", err)
	}
	return done(c, http.StatusOK, cartPath, "", nil)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	uid, err := currentUser(c)
	if err != nil {
		return fail(c, l, "checkout_error", err)
	}

	receipt, err := h.Svc.Checkout(ctx, uid)
	if err != nil {
		return fail(c, l, "checkout_error", err)
	}
	return c.JSON(http.StatusOK, receipt)
}
