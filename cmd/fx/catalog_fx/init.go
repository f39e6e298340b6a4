package catalog_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"shoply/internal/repositories"
)

var Module = fx.Provide(provideProductCatalog)

func provideProductCatalog(db *gorm.DB) repositories.ProductCatalog {
	return repositories.NewProductRepository(db)
}
