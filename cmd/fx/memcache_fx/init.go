package memcache_fx

import (
	"go.uber.org/fx"

	mem "shoply/pkg/memcache"
)

var Module = fx.Provide(provideRedirectTokenStore)

func provideRedirectTokenStore() mem.RedirectTokenStore {
	return mem.NewRedirectTokens()
}
