package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/epinhell/internal/logging"
	"github.com/Skotchmaster/epinhell/internal/models"
	"github.com/Skotchmaster/epinhell/internal/mykafka"
)

type CartRepo interface {
	FindCart(ctx context.Context, userID string) (*models.Cart, error)
	GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error)
	LoadCart(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, cartID, productID uint, quantity int, price decimal.Decimal) (*models.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error)
	IncrementQuantity(ctx context.Context, cartID, itemID uint) (int64, error)
	DecrementQuantity(ctx context.Context, cartID, itemID uint) (int64, error)
	DeleteItem(ctx context.Context, cartID, itemID uint) (int64, error)
	ClearCart(ctx context.Context, cartID uint) error
}

type ProductLookup interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

type CartService struct {
	Repo     CartRepo
	Products ProductLookup
	Events   mykafka.Publisher
}

type CartLine struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartView is a cart as shown to its owner. ID is zero when the user has no cart yet.
type CartView struct {
	ID    uint            `json:"id"`
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type Receipt struct {
	CartID      uint            `json:"cart_id"`
	Items       []CartLine      `json:"items"`
	Total       decimal.Decimal `json:"total"`
	PurchasedAt time.Time       `json:"purchased_at"`
}

func NewCartView(cart *models.Cart) *CartView {
	view := &CartView{ID: cart.ID, Items: make([]CartLine, 0, len(cart.Items)), Total: cart.Total()}
	for i := range cart.Items {
		it := &cart.Items[i]
		line := CartLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			LineTotal: it.LineTotal(),
		}
		if it.Product != nil {
			line.Name = it.Product.Name
			line.ImageURL = it.Product.ImageURL
		}
		view.Items = append(view.Items, line)
	}
	return view
}

func requireUser(userID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// userCart resolves the caller's cart; a missing cart is reported as ErrNotFound.
func (s *CartService) userCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.Repo.FindCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart of user %s: %w", userID, ErrNotFound)
	}
	return cart, err
}

// AddItem puts quantity units of the product in the user's cart, creating the cart on first use.
// The line keeps the catalog price of the moment the product was first added.
func (s *CartService) AddItem(ctx context.Context, userID string, productID uint, quantity int) (*models.CartItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	verr := &ValidationError{}
	if productID == 0 {
		verr.add("product_id", "is required")
	}
	if quantity < 1 {
		verr.add("quantity", "must be at least 1")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	prod, err := s.Products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, err
	}

	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	item, err := s.Repo.AddItem(ctx, cart.ID, prod.ID, quantity, prod.Price)
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	publish(ctx, s.Events, mykafka.TopicCartEvents, userID, map[string]any{
		"type":      "add_to_cart",
		"userID":    userID,
		"productID": prod.ID,
		"quantity":  item.Quantity,
	})
	return item, nil
}

// UpdateQuantity moves a line by delta, which must be +1 or -1. A line never drops below one.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, itemID uint, delta int) (*models.CartItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if delta != 1 && delta != -1 {
		return nil, NewValidationError("action", "must be one of: increase decrease")
	}

	cart, err := s.userCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findItem(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}

	if delta > 0 {
		_, err = s.Repo.IncrementQuantity(ctx, cart.ID, itemID)
	} else {
		_, err = s.Repo.DecrementQuantity(ctx, cart.ID, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("update quantity: %w", err)
	}

	item, err := s.findItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicCartEvents, userID, map[string]any{
		"type":     "update_quantity",
		"userID":   userID,
		"itemID":   itemID,
		"quantity": item.Quantity,
	})
	return item, nil
}

func (s *CartService) findItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error) {
	item, err := s.Repo.FindItem(ctx, cartID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	return item, err
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, itemID uint) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	cart, err := s.userCart(ctx, userID)
	if err != nil {
		return err
	}

	n, err := s.Repo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}

	publish(ctx, s.Events, mykafka.TopicCartEvents, userID, map[string]any{
		"type":   "remove_from_cart",
		"userID": userID,
		"itemID": itemID,
	})
	return nil
}

// Clear empties the user's cart and keeps the cart itself. No cart is not an error.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	cart, err := s.Repo.FindCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Repo.ClearCart(ctx, cart.ID)
}

func (s *CartService) ViewCart(ctx context.Context, userID string) (*CartView, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	cart, err := s.Repo.LoadCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewCartView(&models.Cart{UserID: userID}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return NewCartView(cart), nil
}

// Checkout snapshots the cart into a receipt and clears its lines.
func (s *CartService) Checkout(ctx context.Context, userID string) (*Receipt, error) {
	view, err := s.ViewCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.Clear(ctx, userID); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	receipt := &Receipt{
		CartID:      view.ID,
		Items:       view.Items,
		Total:       view.Total,
		PurchasedAt: time.Now().UTC(),
	}

	logging.FromContext(ctx).Info("checkout_completed", "user_id", userID, "lines", len(receipt.Items), "total", receipt.Total.StringFixed(2))
	publish(ctx, s.Events, mykafka.TopicCartEvents, userID, map[string]any{
		"type":   "checkout",
		"userID": userID,
		"cartID": view.ID,
		"total":  receipt.Total.StringFixed(2),
	})
	return receipt, nil
}
