package request_models

import "github.com/google/uuid"

type CreateIntentRequest struct {
	ProductID     uuid.UUID         `json:"product_id" binding:"required"`
	VariantID     *uuid.UUID        `json:"variant_id"`
	Quantity      int               `json:"quantity" binding:"required,gt=0"`
	Customization map[string]string `json:"customization"`
}

type ShippingAddress struct {
	FullName   string `json:"full_name" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

type AttachAddressRequest struct {
	Address ShippingAddress `json:"address" binding:"required"`
	Email   string          `json:"email" binding:"required,email"`
	Phone   string          `json:"phone"`
}

type CompleteIntentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type CartCheckoutRequest struct {
	PaymentMethod   string          `json:"payment_method" binding:"required"`
	PaymentMethodID *uuid.UUID      `json:"payment_method_id"`
	Address         ShippingAddress `json:"address" binding:"required"`
	Email           string          `json:"email" binding:"required,email"`
}
