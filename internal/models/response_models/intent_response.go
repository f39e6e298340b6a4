package response_models

type ProductSnapshot struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	Stock          int    `json:"stock"`
}

type IntentResponse struct {
	ID             string           `json:"id"`
	Status         string           `json:"status"`
	ProductID      string           `json:"product_id"`
	VariantID      string           `json:"variant_id,omitempty"`
	Quantity       int              `json:"quantity"`
	UnitPriceMinor int64            `json:"unit_price_minor"`
	Currency       string           `json:"currency"`
	ExpiresAt      string           `json:"expires_at"`
	RedirectToken  string           `json:"redirect_token,omitempty"`
	Product        *ProductSnapshot `json:"product,omitempty"`
}

type CompleteIntentResponse struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}
