package app

import (
	"context"

	"go.uber.org/fx"

	"github.com/cryptokiosk/kiosk/internal/cache"
	"github.com/cryptokiosk/kiosk/internal/config"
	"github.com/cryptokiosk/kiosk/internal/database"
	"github.com/cryptokiosk/kiosk/internal/logger"
	"github.com/cryptokiosk/kiosk/internal/messaging"
	"github.com/cryptokiosk/kiosk/internal/metrics"
	"github.com/cryptokiosk/kiosk/internal/observability"
	storeorder "github.com/cryptokiosk/kiosk/internal/repository/order"
	grpcserver "github.com/cryptokiosk/kiosk/internal/server/grpc"
	httpserver "github.com/cryptokiosk/kiosk/internal/server/http"
	serviceorder "github.com/cryptokiosk/kiosk/internal/service/order"
	transporthttp "github.com/cryptokiosk/kiosk/internal/transport/http"
	"github.com/cryptokiosk/kiosk/internal/worker"
	workerorder "github.com/cryptokiosk/kiosk/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	metrics.Module,
	observability.Module,
	storeorder.Module,
	serviceorder.Module,
)

// Schema runs the idempotent orders schema initialisation at startup, so
// request paths never pay for a table-existence check.
var Schema = fx.Invoke(func(lc fx.Lifecycle, orders *storeorder.Store) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return orders.EnsureSchema(ctx)
		},
	})
})

// HTTP wires the HTTP and gRPC transports on top of the core modules.
var HTTP = fx.Options(
	Core,
	Schema,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
