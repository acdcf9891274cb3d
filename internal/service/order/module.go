package order

import (
	"go.uber.org/fx"

	store "github.com/cryptokiosk/kiosk/internal/repository/order"
)

// Module provides the order service to Fx, binding the concrete store
// to the service's Store interface.
var Module = fx.Options(
	fx.Provide(func(s *store.Store) Store { return s }),
	fx.Provide(NewService),
)
