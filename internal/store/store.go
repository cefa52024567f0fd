// Package store defines the persistence boundary. Implementations live
// in store/postgres and store/memory; callers depend only on the Store
// interface and the sentinel errors here.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"tindapos/backend/internal/domain"
)

var (
	// ErrNotFound is returned when the referenced entity does not exist
	// or is archived where archived entities are excluded.
	ErrNotFound = errors.New("store: not found")

	// ErrInsufficientStock is returned when a movement or sale would
	// drive a tracked quantity below zero. Nothing is written.
	ErrInsufficientStock = errors.New("store: insufficient stock")

	// ErrInvalidMovement is returned for movement requests that are
	// malformed before any quantity check (unknown type, zero or
	// negative magnitude).
	ErrInvalidMovement = errors.New("store: invalid stock movement")

	// ErrConflict is returned on unique violations such as a duplicate
	// category name.
	ErrConflict = errors.New("store: conflict")
)

// Store is the full persistence surface. Every method is safe for
// concurrent use; mutating methods are atomic.
type Store interface {
	// Categories.
	CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, id string, req domain.CategoryUpdateRequest) (domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// Products. ListProducts excludes archived rows unless includeArchived
	// is set. ArchiveProduct hides a product from the catalog while
	// preserving its ledger and order history.
	CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context, includeArchived bool) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error)
	ArchiveProduct(ctx context.Context, id string) (domain.Product, error)
	ListLowStock(ctx context.Context) ([]domain.Product, error)

	// Stock ledger. ApplyMovement atomically records one movement and
	// updates the tracked quantity; the returned row carries the
	// previous and new snapshots.
	ApplyMovement(ctx context.Context, req domain.StockAdjustRequest) (domain.StockMovement, error)
	ListMovements(ctx context.Context, productID string, limit int) ([]domain.StockMovement, error)

	// Orders. CreateOrder is the atomic checkout: in one transaction it
	// assigns the order and receipt numbers, verifies and decrements
	// stock for every line, writes the SALE movements and persists the
	// order with its items. On any failure nothing is written.
	CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderListResponse, error)
	UpdateOrderStatus(ctx context.Context, id, status string, at time.Time) (domain.Order, error)

	// Analytics over paid orders.
	RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error)
	TopSellers(ctx context.Context, from, to time.Time, limit int) ([]domain.VariantSales, error)
	DailyReport(ctx context.Context, day time.Time) (domain.DailySalesReport, error)

	// Auth.
	GetUserByUsername(ctx context.Context, username string) (domain.UserAccount, error)

	Ping(ctx context.Context) error
	Close() error
}
