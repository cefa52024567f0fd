// Package service holds the business rules: request validation, role
// checks, price resolution and the checkout flow. Persistence and the
// atomic parts live behind store.Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tindapos/backend/internal/domain"
	"tindapos/backend/internal/money"
	"tindapos/backend/internal/reports"
	"tindapos/backend/internal/store"
)

var (
	// ErrInvalidRequest covers malformed or out-of-range input.
	ErrInvalidRequest = errors.New("service: invalid request")

	// ErrForbidden is returned when the actor's role does not allow the
	// operation.
	ErrForbidden = errors.New("service: forbidden")

	// ErrInsufficientCash re-exports the calculator sentinel so handlers
	// only import this package.
	ErrInsufficientCash = money.ErrInsufficientCash
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo    store.Store
	reports *reports.Engine
	calc    money.Calculator
	nowFn   func() time.Time
}

func New(repo store.Store, reportsEngine *reports.Engine, calc money.Calculator) *Service {
	return &Service{
		repo:    repo,
		reports: reportsEngine,
		calc:    calc,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required: %w", ErrForbidden)
	}
	return nil
}

// ---- categories ----

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Category{}, fmt.Errorf("category name required: %w", ErrInvalidRequest)
	}
	return s.repo.CreateCategory(ctx, req)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) UpdateCategory(ctx context.Context, id string, req domain.CategoryUpdateRequest) (domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return domain.Category{}, fmt.Errorf("category name required: %w", ErrInvalidRequest)
		}
		req.Name = &trimmed
	}
	return s.repo.UpdateCategory(ctx, id, req)
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, id)
}

// ---- products ----

func (s *Service) ListProducts(ctx context.Context, includeArchived bool) ([]domain.Product, error) {
	if includeArchived {
		if err := requireAdmin(ctx); err != nil {
			return nil, err
		}
	}
	return s.repo.ListProducts(ctx, includeArchived)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Product{}, fmt.Errorf("product name required: %w", ErrInvalidRequest)
	}
	if req.SellingPrice.IsNegative() || req.CostPrice.IsNegative() {
		return domain.Product{}, fmt.Errorf("prices must not be negative: %w", ErrInvalidRequest)
	}
	if req.QuantityOnHand < 0 || req.LowStockThreshold < 0 {
		return domain.Product{}, fmt.Errorf("quantities must not be negative: %w", ErrInvalidRequest)
	}

	names := make(map[string]struct{}, len(req.Variants))
	for i, v := range req.Variants {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("variant name required: %w", ErrInvalidRequest)
		}
		if _, dup := names[strings.ToLower(name)]; dup {
			return domain.Product{}, fmt.Errorf("duplicate variant %q: %w", name, ErrInvalidRequest)
		}
		names[strings.ToLower(name)] = struct{}{}
		if v.AdditionalPrice.IsNegative() || v.QuantityOnHand < 0 {
			return domain.Product{}, fmt.Errorf("variant %q out of range: %w", name, ErrInvalidRequest)
		}
		req.Variants[i].Name = name
	}
	if len(req.Variants) > 0 && req.QuantityOnHand != 0 {
		// Variant products track stock per variant only.
		return domain.Product{}, fmt.Errorf("variant products cannot carry product-level stock: %w", ErrInvalidRequest)
	}

	return s.repo.CreateProduct(ctx, req)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return domain.Product{}, fmt.Errorf("product name required: %w", ErrInvalidRequest)
		}
		req.Name = &trimmed
	}
	if req.SellingPrice != nil && req.SellingPrice.IsNegative() {
		return domain.Product{}, fmt.Errorf("selling price must not be negative: %w", ErrInvalidRequest)
	}
	if req.CostPrice != nil && req.CostPrice.IsNegative() {
		return domain.Product{}, fmt.Errorf("cost price must not be negative: %w", ErrInvalidRequest)
	}
	if req.LowStockThreshold != nil && *req.LowStockThreshold < 0 {
		return domain.Product{}, fmt.Errorf("low stock threshold must not be negative: %w", ErrInvalidRequest)
	}
	return s.repo.UpdateProduct(ctx, id, req)
}

func (s *Service) ArchiveProduct(ctx context.Context, id string) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	return s.repo.ArchiveProduct(ctx, id)
}

func (s *Service) ListLowStock(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListLowStock(ctx)
}

// ---- stock ledger ----

// AdjustStock records a manual stock movement. SALE rows are reserved
// for checkout and cannot be written here.
func (s *Service) AdjustStock(ctx context.Context, req domain.StockAdjustRequest) (domain.StockMovement, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.StockMovement{}, err
	}
	if req.Type == domain.MovementSale {
		return domain.StockMovement{}, fmt.Errorf("SALE movements are written by checkout: %w", ErrInvalidRequest)
	}
	mv, err := s.repo.ApplyMovement(ctx, req)
	if err != nil {
		return domain.StockMovement{}, err
	}
	if actor, ok := ActorFromContext(ctx); ok {
		log.Printf("[service] stock %s by %s: product=%s change=%d now=%d",
			mv.Type, actor.Username, mv.ProductID, mv.QuantityChange, mv.NewQuantity)
	}
	return mv, nil
}

func (s *Service) ListMovements(ctx context.Context, productID string, limit int) ([]domain.StockMovement, error) {
	return s.repo.ListMovements(ctx, productID, limit)
}

// ---- checkout ----

func validOrderType(t string) bool {
	return t == domain.OrderTypeDineIn || t == domain.OrderTypeTakeout || t == domain.OrderTypeDelivery
}

func validPaymentMethod(m string) bool {
	return m == domain.PaymentMethodCash || m == domain.PaymentMethodCard || m == domain.PaymentMethodEWallet
}

// PlaceOrder resolves the cart against the live catalog, computes the
// totals and hands the finished order to the store for atomic commit.
// Stock verification happens inside the store transaction, so a cart
// that raced another sale fails cleanly with ErrInsufficientStock.
func (s *Service) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.Order, error) {
	if len(req.Items) == 0 {
		return domain.Order{}, fmt.Errorf("cart is empty: %w", ErrInvalidRequest)
	}
	if !validOrderType(req.OrderType) {
		return domain.Order{}, fmt.Errorf("order type %q: %w", req.OrderType, ErrInvalidRequest)
	}
	if req.OrderType == domain.OrderTypeDineIn && strings.TrimSpace(req.TableNumber) == "" {
		return domain.Order{}, fmt.Errorf("dine-in orders need a table number: %w", ErrInvalidRequest)
	}
	if !validPaymentMethod(req.PaymentMethod) {
		return domain.Order{}, fmt.Errorf("payment method %q: %w", req.PaymentMethod, ErrInvalidRequest)
	}
	if req.Discount.IsNegative() {
		return domain.Order{}, fmt.Errorf("discount must not be negative: %w", ErrInvalidRequest)
	}

	lines := make([]money.Line, 0, len(req.Items))
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, cartLine := range req.Items {
		if cartLine.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("quantity for %s must be positive: %w", cartLine.ProductID, ErrInvalidRequest)
		}
		product, err := s.repo.GetProduct(ctx, cartLine.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		if product.IsArchived {
			return domain.Order{}, fmt.Errorf("product %s: %w", cartLine.ProductID, store.ErrNotFound)
		}

		unitPrice := product.SellingPrice
		itemName := product.Name
		if len(product.Variants) > 0 {
			if cartLine.VariantID == nil {
				return domain.Order{}, fmt.Errorf("product %s requires a variant: %w", product.ID, ErrInvalidRequest)
			}
			var variant *domain.Variant
			for i := range product.Variants {
				if product.Variants[i].ID == *cartLine.VariantID {
					variant = &product.Variants[i]
					break
				}
			}
			if variant == nil {
				return domain.Order{}, fmt.Errorf("variant %s: %w", *cartLine.VariantID, store.ErrNotFound)
			}
			unitPrice = unitPrice.Add(variant.AdditionalPrice)
			itemName = product.Name + " (" + variant.Name + ")"
		} else if cartLine.VariantID != nil {
			return domain.Order{}, fmt.Errorf("product %s has no variants: %w", product.ID, ErrInvalidRequest)
		}

		lines = append(lines, money.Line{UnitPrice: unitPrice, Quantity: cartLine.Quantity})
		items = append(items, domain.OrderItem{
			ProductID: cartLine.ProductID,
			VariantID: cartLine.VariantID,
			ItemName:  itemName,
			Quantity:  cartLine.Quantity,
			Price:     unitPrice,
			Modifiers: cartLine.Modifiers,
			Subtotal:  money.LineSubtotal(unitPrice, cartLine.Quantity),
		})
	}

	totals := s.calc.Compute(lines, req.Discount, req.OrderType)

	var tendered, change *decimal.Decimal
	if req.PaymentMethod == domain.PaymentMethodCash {
		if req.CashTendered == nil {
			return domain.Order{}, fmt.Errorf("cash payments need cashTendered: %w", ErrInvalidRequest)
		}
		due, err := money.Change(*req.CashTendered, totals.Total)
		if err != nil {
			return domain.Order{}, err
		}
		tendered = req.CashTendered
		change = &due
	}

	now := s.nowFn()
	order := domain.Order{
		TableNumber:   strings.TrimSpace(req.TableNumber),
		OrderType:     req.OrderType,
		OrderStatus:   domain.OrderStatusPreparing,
		PaymentStatus: domain.PaymentStatusPaid,
		PaymentMethod: req.PaymentMethod,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Discount:      totals.Discount,
		ServiceCharge: totals.ServiceCharge,
		TotalAmount:   totals.Total,
		CashTendered:  tendered,
		Change:        change,
		StatusLog:     []domain.StatusChange{{From: nil, To: domain.OrderStatusPreparing, At: now}},
		Items:         items,
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	if actor, ok := ActorFromContext(ctx); ok {
		log.Printf("[service] order %s placed by %s: %s", created.OrderNumber, actor.Username,
			domain.FormatCurrency(created.TotalAmount))
	}
	return created, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderListResponse, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return domain.OrderListResponse{}, fmt.Errorf("pagination out of range: %w", ErrInvalidRequest)
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	return s.repo.ListOrders(ctx, filter)
}

func validOrderStatus(status string) bool {
	switch status {
	case domain.OrderStatusPreparing, domain.OrderStatusServed,
		domain.OrderStatusCompleted, domain.OrderStatusCancelled:
		return true
	}
	return false
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id string, req domain.OrderStatusUpdateRequest) (domain.Order, error) {
	if !validOrderStatus(req.Status) {
		return domain.Order{}, fmt.Errorf("status %q: %w", req.Status, ErrInvalidRequest)
	}
	return s.repo.UpdateOrderStatus(ctx, id, req.Status, s.nowFn())
}

// Receipt builds the printable view of an order, with every amount
// currency-formatted.
func (s *Service) Receipt(ctx context.Context, orderID string) (domain.ReceiptResponse, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	resp := domain.ReceiptResponse{
		ReceiptNumber: order.ReceiptNumber,
		OrderNumber:   order.OrderNumber,
		OrderType:     order.OrderType,
		TableNumber:   order.TableNumber,
		IssuedAt:      order.CreatedAt,
		Subtotal:      domain.FormatCurrency(order.Subtotal),
		Tax:           domain.FormatCurrency(order.Tax),
		Total:         domain.FormatCurrency(order.TotalAmount),
		PaymentMethod: order.PaymentMethod,
	}
	if order.Discount.IsPositive() {
		resp.Discount = domain.FormatCurrency(order.Discount)
	}
	if order.ServiceCharge.IsPositive() {
		resp.ServiceCharge = domain.FormatCurrency(order.ServiceCharge)
	}
	if order.CashTendered != nil {
		resp.CashTendered = domain.FormatCurrency(*order.CashTendered)
	}
	if order.Change != nil {
		resp.Change = domain.FormatCurrency(*order.Change)
	}
	for _, item := range order.Items {
		resp.Lines = append(resp.Lines, domain.ReceiptLine{
			Name:     item.ItemName,
			Quantity: item.Quantity,
			Amount:   domain.FormatCurrency(item.Subtotal),
		})
	}
	return resp, nil
}

// ---- analytics ----

func (s *Service) Revenue(ctx context.Context, from, to time.Time) (reports.Revenue, error) {
	return s.reports.Revenue(ctx, from, to)
}

func (s *Service) TopSellers(ctx context.Context, from, to time.Time, limit int) ([]domain.VariantSales, error) {
	return s.reports.TopSellers(ctx, from, to, limit)
}

func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailySalesReport, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return domain.DailySalesReport{}, fmt.Errorf("date %q: %w", date, ErrInvalidRequest)
	}
	return s.reports.Daily(ctx, day)
}

// ---- auth ----

func (s *Service) GetUserByUsername(ctx context.Context, username string) (domain.UserAccount, error) {
	return s.repo.GetUserByUsername(ctx, username)
}
