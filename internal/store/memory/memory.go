// Package memory is the in-memory Store used for dev mode and tests.
// All state lives behind one mutex; methods copy values in and out so
// callers never share slices or maps with the store.
package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"tindapos/backend/internal/domain"
	"tindapos/backend/internal/store"
	"tindapos/backend/internal/xid"
)

type Store struct {
	mu                sync.RWMutex
	categories        map[string]domain.Category
	products          map[string]domain.Product
	movements         []domain.StockMovement
	ordersByID        map[string]*domain.Order
	orderSeqByDay     map[string]int
	receiptSeqByMonth map[string]int
	usersByUsername   map[string]domain.UserAccount

	nowFn func() time.Time
}

// seedUsers builds the dev/demo user accounts. Credentials come from
// SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; hardcoded defaults are
// used with a warning when unset. Production deployments use PostgreSQL
// and never reach this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		name     string
		password string
		role     string
	}{
		{"admin", "Store Admin", adminPwd, "admin"},
		{"cashier", "Front Cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			ID:           xid.New("usr"),
			Username:     u.username,
			Name:         u.name,
			Role:         u.role,
			PasswordHash: string(hash),
			CreatedAt:    now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New() *Store {
	return &Store{
		categories:        map[string]domain.Category{},
		products:          map[string]domain.Product{},
		ordersByID:        map[string]*domain.Order{},
		orderSeqByDay:     map[string]int{},
		receiptSeqByMonth: map[string]int{},
		usersByUsername:   seedUsers(),
		nowFn:             func() time.Time { return time.Now().UTC() },
	}
}

// NewSeeded returns a store preloaded with a small cafe catalog, enough
// to exercise every endpoint without a database.
func NewSeeded() *Store {
	s := New()
	now := s.nowFn()

	drinks := domain.Category{ID: xid.New("cat"), Name: "Drinks", CreatedAt: now}
	meals := domain.Category{ID: xid.New("cat"), Name: "Meals", CreatedAt: now}
	desserts := domain.Category{ID: xid.New("cat"), Name: "Desserts", CreatedAt: now}
	for _, c := range []domain.Category{drinks, meals, desserts} {
		s.categories[c.ID] = c
	}

	dec := decimal.RequireFromString
	seed := []domain.Product{
		{
			ID: xid.New("prd"), CategoryID: ptr(drinks.ID), Name: "Iced Latte",
			CostPrice: dec("45"), SellingPrice: dec("120"), LowStockThreshold: 10,
			Variants: []domain.Variant{
				{Name: "12oz", AdditionalPrice: decimal.Zero, QuantityOnHand: 40},
				{Name: "16oz", AdditionalPrice: dec("25"), QuantityOnHand: 35},
			},
		},
		{
			ID: xid.New("prd"), CategoryID: ptr(drinks.ID), Name: "Mango Shake",
			CostPrice: dec("38"), SellingPrice: dec("110"), QuantityOnHand: 25, LowStockThreshold: 8,
		},
		{
			ID: xid.New("prd"), CategoryID: ptr(meals.ID), Name: "Chicken Adobo Rice Bowl",
			CostPrice: dec("72"), SellingPrice: dec("185"), QuantityOnHand: 30, LowStockThreshold: 5,
		},
		{
			ID: xid.New("prd"), CategoryID: ptr(meals.ID), Name: "Sisig Silog",
			CostPrice: dec("80"), SellingPrice: dec("195"), QuantityOnHand: 20, LowStockThreshold: 5,
		},
		{
			ID: xid.New("prd"), CategoryID: ptr(desserts.ID), Name: "Leche Flan",
			CostPrice: dec("28"), SellingPrice: dec("85"), QuantityOnHand: 15, LowStockThreshold: 6,
		},
	}
	for i := range seed {
		p := seed[i]
		p.CreatedAt = now
		p.UpdatedAt = now
		for j := range p.Variants {
			p.Variants[j].ID = xid.New("var")
			p.Variants[j].ProductID = p.ID
			p.Variants[j].CreatedAt = now
		}
		s.products[p.ID] = p
	}
	return s
}

func ptr[T any](v T) *T { return &v }

// SetNow overrides the clock. Test helper.
func (s *Store) SetNow(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

func (s *Store) Ping(_ context.Context) error { return nil }
func (s *Store) Close() error                 { return nil }

// ---- categories ----

func (s *Store) CreateCategory(_ context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, req.Name) {
			return domain.Category{}, fmt.Errorf("category %q: %w", req.Name, store.ErrConflict)
		}
	}
	if req.ParentID != nil {
		if _, ok := s.categories[*req.ParentID]; !ok {
			return domain.Category{}, fmt.Errorf("parent category %s: %w", *req.ParentID, store.ErrNotFound)
		}
	}
	cat := domain.Category{
		ID:        xid.New("cat"),
		Name:      req.Name,
		ParentID:  req.ParentID,
		CreatedAt: s.nowFn(),
	}
	s.categories[cat.ID] = cat
	return cat, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, id string, req domain.CategoryUpdateRequest) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categories[id]
	if !ok {
		return domain.Category{}, fmt.Errorf("category %s: %w", id, store.ErrNotFound)
	}
	if req.Name != nil {
		for _, c := range s.categories {
			if c.ID != id && strings.EqualFold(c.Name, *req.Name) {
				return domain.Category{}, fmt.Errorf("category %q: %w", *req.Name, store.ErrConflict)
			}
		}
		cat.Name = *req.Name
	}
	if req.ParentID != nil {
		if *req.ParentID == id {
			return domain.Category{}, fmt.Errorf("category %s cannot parent itself: %w", id, store.ErrConflict)
		}
		if _, ok := s.categories[*req.ParentID]; !ok {
			return domain.Category{}, fmt.Errorf("parent category %s: %w", *req.ParentID, store.ErrNotFound)
		}
		cat.ParentID = req.ParentID
	}
	s.categories[id] = cat
	return cat, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, store.ErrNotFound)
	}
	delete(s.categories, id)
	// Deleting a category takes its products and their ledger with it;
	// order items keep their denormalized snapshots.
	for pid, p := range s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			delete(s.products, pid)
			s.movements = slices.DeleteFunc(s.movements, func(mv domain.StockMovement) bool {
				return mv.ProductID == pid
			})
		}
	}
	for cid, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			c.ParentID = nil
			s.categories[cid] = c
		}
	}
	return nil
}

// ---- products ----

func (s *Store) CreateProduct(_ context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.CategoryID != nil {
		if _, ok := s.categories[*req.CategoryID]; !ok {
			return domain.Product{}, fmt.Errorf("category %s: %w", *req.CategoryID, store.ErrNotFound)
		}
	}
	now := s.nowFn()
	p := domain.Product{
		ID:                xid.New("prd"),
		CategoryID:        req.CategoryID,
		Name:              req.Name,
		Description:       req.Description,
		Image:             req.Image,
		CostPrice:         req.CostPrice,
		SellingPrice:      req.SellingPrice,
		QuantityOnHand:    req.QuantityOnHand,
		LowStockThreshold: req.LowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, v := range req.Variants {
		p.Variants = append(p.Variants, domain.Variant{
			ID:              xid.New("var"),
			ProductID:       p.ID,
			Name:            v.Name,
			AdditionalPrice: v.AdditionalPrice,
			QuantityOnHand:  v.QuantityOnHand,
			CreatedAt:       now,
		})
	}
	s.products[p.ID] = p
	return cloneProduct(p), nil
}

func (s *Store) GetProduct(_ context.Context, id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	return cloneProduct(p), nil
}

func (s *Store) ListProducts(_ context.Context, includeArchived bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.IsArchived && !includeArchived {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateProduct(_ context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	if req.CategoryID != nil {
		if _, ok := s.categories[*req.CategoryID]; !ok {
			return domain.Product{}, fmt.Errorf("category %s: %w", *req.CategoryID, store.ErrNotFound)
		}
		p.CategoryID = req.CategoryID
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.SellingPrice != nil {
		p.SellingPrice = *req.SellingPrice
	}
	if req.LowStockThreshold != nil {
		p.LowStockThreshold = *req.LowStockThreshold
	}
	p.UpdatedAt = s.nowFn()
	s.products[id] = p
	return cloneProduct(p), nil
}

func (s *Store) ArchiveProduct(_ context.Context, id string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	p.IsArchived = true
	p.UpdatedAt = s.nowFn()
	s.products[id] = p
	return cloneProduct(p), nil
}

func (s *Store) ListLowStock(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Product
	for _, p := range s.products {
		if p.IsArchived {
			continue
		}
		if productIsLow(p) {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func productIsLow(p domain.Product) bool {
	if len(p.Variants) == 0 {
		return p.QuantityOnHand <= p.LowStockThreshold
	}
	for _, v := range p.Variants {
		if v.QuantityOnHand <= p.LowStockThreshold {
			return true
		}
	}
	return false
}

// ---- stock ledger ----

func (s *Store) ApplyMovement(_ context.Context, req domain.StockAdjustRequest) (domain.StockMovement, error) {
	change, err := movementChange(req.Type, req.Quantity)
	if err != nil {
		return domain.StockMovement{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[req.ProductID]
	if !ok {
		return domain.StockMovement{}, fmt.Errorf("product %s: %w", req.ProductID, store.ErrNotFound)
	}

	prev, err := quantityOf(p, req.VariantID)
	if err != nil {
		return domain.StockMovement{}, err
	}
	next := prev + change
	if next < 0 {
		return domain.StockMovement{}, fmt.Errorf("product %s: have %d, change %d: %w",
			req.ProductID, prev, change, store.ErrInsufficientStock)
	}

	setQuantity(&p, req.VariantID, next)
	p.UpdatedAt = s.nowFn()
	s.products[req.ProductID] = p

	mv := domain.StockMovement{
		ID:               xid.New("mov"),
		ProductID:        req.ProductID,
		VariantID:        req.VariantID,
		Type:             req.Type,
		QuantityChange:   change,
		PreviousQuantity: prev,
		NewQuantity:      next,
		Notes:            req.Notes,
		CreatedAt:        s.nowFn(),
	}
	s.movements = append(s.movements, mv)
	return mv, nil
}

func (s *Store) ListMovements(_ context.Context, productID string, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.products[productID]; !ok {
		return nil, fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
	}
	var out []domain.StockMovement
	for i := len(s.movements) - 1; i >= 0; i-- {
		if s.movements[i].ProductID == productID {
			out = append(out, s.movements[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// movementChange maps a movement type and magnitude onto a signed
// quantity change. Callers never pass signed quantities.
func movementChange(movementType string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("quantity %d: %w", quantity, store.ErrInvalidMovement)
	}
	switch movementType {
	case domain.MovementStockIn:
		return quantity, nil
	case domain.MovementAdjustment, domain.MovementWastage, domain.MovementSale:
		return -quantity, nil
	default:
		return 0, fmt.Errorf("type %q: %w", movementType, store.ErrInvalidMovement)
	}
}

func quantityOf(p domain.Product, variantID *string) (int, error) {
	if variantID == nil {
		return p.QuantityOnHand, nil
	}
	for _, v := range p.Variants {
		if v.ID == *variantID {
			return v.QuantityOnHand, nil
		}
	}
	return 0, fmt.Errorf("variant %s: %w", *variantID, store.ErrNotFound)
}

func setQuantity(p *domain.Product, variantID *string, qty int) {
	if variantID == nil {
		p.QuantityOnHand = qty
		return
	}
	for i := range p.Variants {
		if p.Variants[i].ID == *variantID {
			p.Variants[i].QuantityOnHand = qty
			return
		}
	}
}

// ---- orders ----

// CreateOrder performs the whole checkout under one lock: sequence
// numbers, stock verification, SALE ledger rows and the order itself
// either all land or none do.
func (s *Store) CreateOrder(_ context.Context, order domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()

	// Verify every line before touching anything.
	type staged struct {
		product domain.Product
		prev    int
		next    int
		item    domain.OrderItem
	}
	plan := make([]staged, 0, len(order.Items))
	seen := map[string]int{} // productID|variantID -> staged quantity already claimed
	for _, item := range order.Items {
		p, ok := s.products[item.ProductID]
		if !ok || p.IsArchived {
			return domain.Order{}, fmt.Errorf("product %s: %w", item.ProductID, store.ErrNotFound)
		}
		prev, err := quantityOf(p, item.VariantID)
		if err != nil {
			return domain.Order{}, err
		}
		key := item.ProductID
		if item.VariantID != nil {
			key += "|" + *item.VariantID
		}
		prev -= seen[key]
		next := prev - item.Quantity
		if next < 0 {
			return domain.Order{}, fmt.Errorf("product %s: have %d, need %d: %w",
				item.ProductID, prev, item.Quantity, store.ErrInsufficientStock)
		}
		seen[key] += item.Quantity
		plan = append(plan, staged{product: p, prev: prev, next: next, item: item})
	}

	order.ID = xid.New("ord")
	order.CreatedAt = now
	order.OrderNumber = s.nextOrderNumber(now)
	order.ReceiptNumber = s.nextReceiptNumber(now)

	for i := range order.Items {
		order.Items[i].ID = xid.New("itm")
		order.Items[i].OrderID = order.ID
	}

	for _, st := range plan {
		p := s.products[st.item.ProductID]
		setQuantity(&p, st.item.VariantID, st.next)
		p.UpdatedAt = now
		s.products[st.item.ProductID] = p
		s.movements = append(s.movements, domain.StockMovement{
			ID:               xid.New("mov"),
			ProductID:        st.item.ProductID,
			VariantID:        st.item.VariantID,
			Type:             domain.MovementSale,
			QuantityChange:   -st.item.Quantity,
			PreviousQuantity: st.prev,
			NewQuantity:      st.next,
			Notes:            "order " + order.OrderNumber,
			CreatedAt:        now,
		})
	}

	stored := cloneOrder(order)
	s.ordersByID[order.ID] = &stored
	return cloneOrder(stored), nil
}

func (s *Store) nextOrderNumber(now time.Time) string {
	day := now.Format("20060102")
	s.orderSeqByDay[day]++
	return fmt.Sprintf("ORD-%s-%04d", day, s.orderSeqByDay[day])
}

func (s *Store) nextReceiptNumber(now time.Time) string {
	month := now.Format("200601")
	s.receiptSeqByMonth[month]++
	return fmt.Sprintf("RCP-%s-%04d", month, s.receiptSeqByMonth[month])
}

func (s *Store) GetOrder(_ context.Context, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.ordersByID[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, store.ErrNotFound)
	}
	return cloneOrder(*o), nil
}

func (s *Store) ListOrders(_ context.Context, filter domain.OrderFilter) (domain.OrderListResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Order, 0, len(s.ordersByID))
	for _, o := range s.ordersByID {
		if filter.From != nil && o.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !o.CreatedAt.Before(*filter.To) {
			continue
		}
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			continue
		}
		all = append(all, cloneOrder(*o))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	offset := filter.Offset
	if offset > total {
		offset = total
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return domain.OrderListResponse{Orders: all[offset:end], Total: total}, nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id, status string, at time.Time) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.ordersByID[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, store.ErrNotFound)
	}
	if !domain.CanTransition(o.OrderStatus, status) {
		return domain.Order{}, fmt.Errorf("order %s: %s -> %s: %w", id, o.OrderStatus, status, store.ErrConflict)
	}
	from := o.OrderStatus
	o.StatusLog = append(o.StatusLog, domain.StatusChange{From: &from, To: status, At: at})
	o.OrderStatus = status
	switch status {
	case domain.OrderStatusCompleted:
		completed := at
		o.CompletedAt = &completed
	case domain.OrderStatusCancelled:
		o.PaymentStatus = domain.PaymentStatusRefunded
	}
	return cloneOrder(*o), nil
}

// ---- analytics ----

func (s *Store) RevenueBetween(_ context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	count := 0
	for _, o := range s.ordersByID {
		if !paidWithin(o, from, to) {
			continue
		}
		total = total.Add(o.TotalAmount)
		count++
	}
	return total, count, nil
}

func (s *Store) TopSellers(_ context.Context, from, to time.Time, limit int) ([]domain.VariantSales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		productID string
		variantID string
	}
	agg := map[key]*domain.VariantSales{}
	for _, o := range s.ordersByID {
		if !paidWithin(o, from, to) {
			continue
		}
		for _, item := range o.Items {
			k := key{productID: item.ProductID}
			if item.VariantID != nil {
				k.variantID = *item.VariantID
			}
			row, ok := agg[k]
			if !ok {
				row = &domain.VariantSales{
					ProductID: item.ProductID,
					VariantID: item.VariantID,
					ItemName:  item.ItemName,
				}
				agg[k] = row
			}
			row.TotalQty += item.Quantity
		}
	}

	out := make([]domain.VariantSales, 0, len(agg))
	for _, row := range agg {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQty != out[j].TotalQty {
			return out[i].TotalQty > out[j].TotalQty
		}
		return out[i].ItemName < out[j].ItemName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DailyReport(_ context.Context, day time.Time) (domain.DailySalesReport, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.DailySalesReport{
		Date:          from.Format("2006-01-02"),
		GrossSales:    decimal.Zero,
		Discount:      decimal.Zero,
		Tax:           decimal.Zero,
		ServiceCharge: decimal.Zero,
		NetSales:      decimal.Zero,
	}
	byMethod := map[string]*domain.PaymentBreakdown{}
	for _, o := range s.ordersByID {
		if !paidWithin(o, from, to) {
			continue
		}
		report.Orders++
		report.GrossSales = report.GrossSales.Add(o.Subtotal)
		report.Discount = report.Discount.Add(o.Discount)
		report.Tax = report.Tax.Add(o.Tax)
		report.ServiceCharge = report.ServiceCharge.Add(o.ServiceCharge)
		report.NetSales = report.NetSales.Add(o.TotalAmount)

		bd, ok := byMethod[o.PaymentMethod]
		if !ok {
			bd = &domain.PaymentBreakdown{Method: o.PaymentMethod, Amount: decimal.Zero}
			byMethod[o.PaymentMethod] = bd
		}
		bd.Orders++
		bd.Amount = bd.Amount.Add(o.TotalAmount)
	}
	for _, bd := range byMethod {
		report.ByPayment = append(report.ByPayment, *bd)
	}
	sort.Slice(report.ByPayment, func(i, j int) bool {
		return report.ByPayment[i].Method < report.ByPayment[j].Method
	})
	return report, nil
}

func paidWithin(o *domain.Order, from, to time.Time) bool {
	if o.PaymentStatus != domain.PaymentStatusPaid {
		return false
	}
	if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
		return false
	}
	return true
}

// ---- auth ----

func (s *Store) GetUserByUsername(_ context.Context, username string) (domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByUsername[username]
	if !ok {
		return domain.UserAccount{}, fmt.Errorf("user %s: %w", username, store.ErrNotFound)
	}
	return u, nil
}

// ---- clone helpers ----

func cloneProduct(p domain.Product) domain.Product {
	out := p
	out.Variants = slices.Clone(p.Variants)
	return out
}

func cloneOrder(o domain.Order) domain.Order {
	out := o
	out.Items = slices.Clone(o.Items)
	out.StatusLog = slices.Clone(o.StatusLog)
	return out
}
