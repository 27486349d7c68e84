package repo

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/epinhell/internal/db"
	"github.com/Skotchmaster/epinhell/internal/models"
)

func (r *GormRepo) FindCart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateCart relies on the unique index on carts.user_id; a lost creation race re-reads the winner.
func (r *GormRepo) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart := models.Cart{}
	err := r.DB.WithContext(ctx).Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !db.IsDuplicateKey(err) {
		return nil, err
	}
	return r.FindCart(ctx, userID)
}

// LoadCart returns the cart with its lines in insertion order and their products.
func (r *GormRepo) LoadCart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("cart_items.id ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem increments an existing line for the product or inserts a new one priced at price.
func (r *GormRepo) AddItem(ctx context.Context, cartID, productID uint, quantity int, price decimal.Decimal) (*models.CartItem, error) {
	item := &models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity, Price: price}

	err := r.addItem(ctx, item)
	if db.IsDuplicateKey(err) {
		// a concurrent insert won; the line exists now, so this pass takes the increment path
		err = r.addItem(ctx, item)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *GormRepo) addItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", item.CartID, item.ProductID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("cart_id = ? AND product_id = ?", item.CartID, item.ProductID).First(item).Error
		}

		return tx.Create(item).Error
	})
}

func (r *GormRepo) FindItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) IncrementQuantity(ctx context.Context, cartID, itemID uint) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Update("quantity", gorm.Expr("quantity + 1"))
	return res.RowsAffected, res.Error
}

// DecrementQuantity never takes a line below one.
func (r *GormRepo) DecrementQuantity(ctx context.Context, cartID, itemID uint) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ? AND quantity > 1", itemID, cartID).
		Update("quantity", gorm.Expr("quantity - 1"))
	return res.RowsAffected, res.Error
}

func (r *GormRepo) DeleteItem(ctx context.Context, cartID, itemID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) ClearCart(ctx context.Context, cartID uint) error {
	return r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
