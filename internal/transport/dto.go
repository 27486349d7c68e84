package transport

import "github.com/shopspring/decimal"

type RegisterRequest struct {
	Username        string `json:"username"         form:"username"         validate:"required,min=3,max=64"`
	Email           string `json:"email"            form:"email"            validate:"required,email,max=255"`
	Password        string `json:"password"         form:"password"         validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// ProductRequest replaces every mutable field of a product.
type ProductRequest struct {
	Name        string           `json:"name"        form:"name"        validate:"required,max=100"`
	Price       *decimal.Decimal `json:"price"       form:"price"`
	Description string           `json:"description" form:"description" validate:"max=500"`
	ImageURL    string           `json:"image_url"   form:"image_url"   validate:"max=255"`
	Version     *uint            `json:"version"     form:"version"`
}

// PatchProductRequest changes only the fields that are present.
type PatchProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=1,max=100"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	ImageURL    *string          `json:"image_url"   validate:"omitempty,max=255"`
	Version     *uint            `json:"version"`
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" form:"product_id" validate:"required"`
	Quantity  *int `json:"quantity"   form:"quantity"   validate:"omitempty,min=1"`
}

type QuantityRequest struct {
	Action string `json:"action" form:"action" validate:"required,oneof=increase decrease"`
}
