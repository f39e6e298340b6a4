package request_models

import "github.com/google/uuid"

type AddCartItemRequest struct {
	ProductID     uuid.UUID         `json:"product_id" binding:"required"`
	VariantID     *uuid.UUID        `json:"variant_id"`
	Quantity      int               `json:"quantity" binding:"required,gt=0"`
	Customization map[string]string `json:"customization"`
}

type UpdateQuantityRequest struct {
	// Zero or negative removes the line.
	Quantity int `json:"quantity"`
}
