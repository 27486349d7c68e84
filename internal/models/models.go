package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name        string          `gorm:"type:varchar(100);not null"      json:"name"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"     json:"price"`
	Description string          `gorm:"type:varchar(500)"               json:"description"`
	ImageURL    string          `gorm:"column:image_url;type:varchar(255)" json:"image_url"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;<-:create"        json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"                  json:"updated_at"`
	Version     uint            `gorm:"not null;default:1"              json:"version"`
}

type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"          json:"id"`
	UserID    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `gorm:"autoCreateTime;<-:create"          json:"created_at"`
}

// Total is recomputed from the current lines on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
	}
	return total
}

type CartItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"                json:"id"`
	CartID    uint            `gorm:"not null;uniqueIndex:idx_cart_product"   json:"cart_id"`
	ProductID uint            `gorm:"not null;uniqueIndex:idx_cart_product"   json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:CASCADE"             json:"product,omitempty"`
	Quantity  int             `gorm:"not null;default:1;check:quantity>0"     json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"             json:"price"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (i *CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Role struct {
	Name string `gorm:"primaryKey;type:varchar(32)" json:"name"`
}

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"        json:"id"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);not null"         json:"email"`
	PasswordHash string    `gorm:"not null"                           json:"-"`
	Role         string    `gorm:"type:varchar(32);not null;index"    json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime;<-:create"           json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"                      json:"id"`
	UserID    string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Role      string `gorm:"type:varchar(32);not null"       json:"role"`
	TokenHash string `gorm:"uniqueIndex;not null"            json:"-"`
	JTI       string `gorm:"uniqueIndex;not null"            json:"jti"`
	ExpiresAt int64  `gorm:"not null"                        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"                   json:"revoked"`
}

// All lists every table owned by the service, in dependency order.
func All() []any {
	return []any{&Role{}, &User{}, &RefreshToken{}, &Product{}, &Cart{}, &CartItem{}}
}
