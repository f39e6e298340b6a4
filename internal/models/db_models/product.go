package db_models

// Product is the slice of the external catalog this engine reads: price,
// sale price, stock, and the descriptive fields snapshotted onto order items.
type Product struct {
	BaseModel
	Name           string
	SKU            string `gorm:"uniqueIndex"`
	Description    string
	PriceMinor     int64  // minor units, e.g. 2500 = $25.00
	SalePriceMinor *int64 // nullable; wins over PriceMinor when set
	Currency       string `gorm:"size:3;default:'USD'"`
	Stock          int
}

// UnitPriceMinor is the effective selling price: sale price when present.
func (p *Product) UnitPriceMinor() int64 {
	if p.SalePriceMinor != nil {
		return *p.SalePriceMinor
	}
	return p.PriceMinor
}
