package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gasflow/fulfillment-service/internal/catalog"
	"github.com/gasflow/fulfillment-service/internal/handler"
	"github.com/gasflow/fulfillment-service/internal/order"
	"github.com/gasflow/fulfillment-service/internal/stock"
)

// NewRouter wires the Postgres-backed services into a chi router.
func NewRouter(pool *pgxpool.Pool, lockTimeout time.Duration) *chi.Mux {
	products := catalog.NewPostgresRepository(pool)
	ledger := stock.NewLedger(stock.NewPostgresRepository(pool), products, lockTimeout)
	orders := order.NewService(order.NewPostgresRepository(pool), ledger, products, lockTimeout)

	return newRouter(orders, ledger)
}

// NewMemoryRouter wires fully in-memory services, used by tests and demo runs.
func NewMemoryRouter(products *catalog.MemoryRepository, lockTimeout time.Duration) *chi.Mux {
	ledger := stock.NewLedger(stock.NewMemoryRepository(), products, lockTimeout)
	orders := order.NewService(order.NewMemoryRepository(), ledger, products, lockTimeout)

	return newRouter(orders, ledger)
}

func newRouter(orders order.Service, ledger stock.Ledger) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	handler.NewOrderHandler(orders).RegisterRoutes(r)
	handler.NewStockHandler(ledger).RegisterRoutes(r)

	return r
}
