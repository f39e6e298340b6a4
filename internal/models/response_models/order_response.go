package response_models

type OrderItemResponse struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	ProductSKU     string `json:"product_sku"`
	Quantity       int    `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	SubtotalMinor int64               `json:"subtotal_minor"`
	ShippingMinor int64               `json:"shipping_minor"`
	TaxMinor      int64               `json:"tax_minor"`
	TotalMinor    int64               `json:"total_minor"`
	Currency      string              `json:"currency"`
	PaymentMethod string              `json:"payment_method"`
	Items         []OrderItemResponse `json:"items"`
}
