package response_models

type CartItemResponse struct {
	ID             string            `json:"id"`
	ProductID      string            `json:"product_id"`
	VariantID      string            `json:"variant_id,omitempty"`
	Quantity       int               `json:"quantity"`
	UnitPriceMinor int64             `json:"unit_price_minor"`
	Customization  map[string]string `json:"customization,omitempty"`
	SavedForLater  bool              `json:"saved_for_later"`
}

type CartResponse struct {
	ID            string             `json:"id"`
	Items         []CartItemResponse `json:"items"`
	SubtotalMinor int64              `json:"subtotal_minor"`
	TaxMinor      int64              `json:"tax_minor"`
	ShippingMinor int64              `json:"shipping_minor"`
	TotalMinor    int64              `json:"total_minor"`
	Currency      string             `json:"currency"`
}
