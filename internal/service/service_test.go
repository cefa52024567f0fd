package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tindapos/backend/internal/cache"
	"tindapos/backend/internal/domain"
	"tindapos/backend/internal/money"
	"tindapos/backend/internal/reports"
	"tindapos/backend/internal/store"
	"tindapos/backend/internal/store/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	t.Setenv("SEED_ADMIN_PASSWORD", "test-admin-pw")
	t.Setenv("SEED_CASHIER_PASSWORD", "test-cashier-pw")

	repo := memory.New()
	engine := reports.NewEngine(repo, cache.NoopReportCache{}, time.Second)
	return New(repo, engine, money.DefaultCalculator()), repo
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "cashier", Role: "cashier"})
}

func mustCreateProduct(t *testing.T, svc *Service, req domain.ProductCreateRequest) domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(adminCtx(), req)
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", req.Name, err)
	}
	return product
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	drinks, err := svc.CreateCategory(ctx, domain.CategoryCreateRequest{Name: "Drinks"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.CreateCategory(ctx, domain.CategoryCreateRequest{Name: "drinks"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate name should conflict, got %v", err)
	}

	renamed := "Beverages"
	updated, err := svc.UpdateCategory(ctx, drinks.ID, domain.CategoryUpdateRequest{Name: &renamed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Beverages" {
		t.Fatalf("name = %q, want Beverages", updated.Name)
	}

	latte := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		CategoryID:     &drinks.ID,
		Name:           "Latte",
		SellingPrice:   dec("120"),
		QuantityOnHand: 5,
	})

	if err := svc.DeleteCategory(ctx, drinks.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteCategory(ctx, drinks.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
	// Deletion cascades to the category's products.
	if _, err := svc.GetProduct(ctx, latte.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("product should be gone with its category, got %v", err)
	}
}

func TestCategoryMutationsRequireAdmin(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.CreateCategory(cashierCtx(), domain.CategoryCreateRequest{Name: "Drinks"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cashier create should be forbidden, got %v", err)
	}
	if _, err := svc.CreateCategory(context.Background(), domain.CategoryCreateRequest{Name: "Drinks"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous create should be forbidden, got %v", err)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	cases := []struct {
		name string
		req  domain.ProductCreateRequest
	}{
		{"empty name", domain.ProductCreateRequest{SellingPrice: dec("10")}},
		{"negative price", domain.ProductCreateRequest{Name: "X", SellingPrice: dec("-1")}},
		{"negative stock", domain.ProductCreateRequest{Name: "X", SellingPrice: dec("10"), QuantityOnHand: -1}},
		{"duplicate variants", domain.ProductCreateRequest{
			Name: "X", SellingPrice: dec("10"),
			Variants: []domain.VariantInput{{Name: "12oz"}, {Name: "12OZ"}},
		}},
		{"variant product with product stock", domain.ProductCreateRequest{
			Name: "X", SellingPrice: dec("10"), QuantityOnHand: 5,
			Variants: []domain.VariantInput{{Name: "12oz"}},
		}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateProduct(ctx, tc.req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: want ErrInvalidRequest, got %v", tc.name, err)
		}
	}
}

func TestArchiveProductHidesAndBlocksCheckout(t *testing.T) {
	svc, _ := newTestService(t)

	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Old Item", SellingPrice: dec("50"), QuantityOnHand: 10,
	})
	if _, err := svc.ArchiveProduct(adminCtx(), p.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	visible, err := svc.ListProducts(cashierCtx(), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, got := range visible {
		if got.ID == p.ID {
			t.Fatalf("archived product still listed")
		}
	}

	all, err := svc.ListProducts(adminCtx(), true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	found := false
	for _, got := range all {
		if got.ID == p.ID && got.IsArchived {
			found = true
		}
	}
	if !found {
		t.Fatalf("archived product missing from admin listing")
	}

	_, err = svc.PlaceOrder(cashierCtx(), domain.PlaceOrderRequest{
		Items:         []domain.CartLine{{ProductID: p.ID, Quantity: 1}},
		OrderType:     domain.OrderTypeTakeout,
		PaymentMethod: domain.PaymentMethodCard,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("checkout of archived product should be not found, got %v", err)
	}
}

func TestAdjustStockLedger(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Beans", SellingPrice: dec("100"), QuantityOnHand: 10,
	})
	ctx := adminCtx()

	in, err := svc.AdjustStock(ctx, domain.StockAdjustRequest{
		ProductID: p.ID, Quantity: 5, Type: domain.MovementStockIn, Notes: "delivery",
	})
	if err != nil {
		t.Fatalf("stock in: %v", err)
	}
	if in.PreviousQuantity != 10 || in.NewQuantity != 15 || in.QuantityChange != 5 {
		t.Fatalf("stock in snapshot = %+v", in)
	}

	waste, err := svc.AdjustStock(ctx, domain.StockAdjustRequest{
		ProductID: p.ID, Quantity: 3, Type: domain.MovementWastage,
	})
	if err != nil {
		t.Fatalf("wastage: %v", err)
	}
	if waste.QuantityChange != -3 || waste.NewQuantity != 12 {
		t.Fatalf("wastage snapshot = %+v", waste)
	}

	got, err := svc.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.QuantityOnHand != 12 {
		t.Fatalf("quantity = %d, want 12", got.QuantityOnHand)
	}

	movements, err := svc.ListMovements(ctx, p.ID, 10)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(movements))
	}
	for _, mv := range movements {
		if mv.NewQuantity != mv.PreviousQuantity+mv.QuantityChange {
			t.Fatalf("ledger chain broken: %+v", mv)
		}
	}
}

func TestAdjustStockRejectsNegativeResult(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Beans", SellingPrice: dec("100"), QuantityOnHand: 4,
	})
	ctx := adminCtx()

	_, err := svc.AdjustStock(ctx, domain.StockAdjustRequest{
		ProductID: p.ID, Quantity: 5, Type: domain.MovementAdjustment,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}

	got, _ := svc.GetProduct(ctx, p.ID)
	if got.QuantityOnHand != 4 {
		t.Fatalf("failed movement changed quantity: %d", got.QuantityOnHand)
	}
	movements, _ := svc.ListMovements(ctx, p.ID, 10)
	if len(movements) != 0 {
		t.Fatalf("failed movement left ledger rows: %d", len(movements))
	}
}

func TestAdjustStockRejectsInvalidRequests(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Beans", SellingPrice: dec("100"), QuantityOnHand: 4,
	})

	if _, err := svc.AdjustStock(adminCtx(), domain.StockAdjustRequest{
		ProductID: p.ID, Quantity: 1, Type: domain.MovementSale,
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("manual SALE should be rejected, got %v", err)
	}
	if _, err := svc.AdjustStock(adminCtx(), domain.StockAdjustRequest{
		ProductID: p.ID, Quantity: 0, Type: domain.MovementStockIn,
	}); !errors.Is(err, store.ErrInvalidMovement) {
		t.Fatalf("zero quantity should be rejected, got %v", err)
	}
	if _, err := svc.AdjustStock(adminCtx(), domain.StockAdjustRequest{
		ProductID: p.ID, Quantity: 1, Type: "TRANSFER",
	}); !errors.Is(err, store.ErrInvalidMovement) {
		t.Fatalf("unknown type should be rejected, got %v", err)
	}
	if _, err := svc.AdjustStock(cashierCtx(), domain.StockAdjustRequest{
		ProductID: p.ID, Quantity: 1, Type: domain.MovementStockIn,
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cashier adjustment should be forbidden, got %v", err)
	}
}

func TestPlaceOrderDineInCash(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Adobo Bowl", SellingPrice: dec("250"), QuantityOnHand: 10,
	})

	tendered := dec("1000")
	order, err := svc.PlaceOrder(cashierCtx(), domain.PlaceOrderRequest{
		Items:         []domain.CartLine{{ProductID: p.ID, Quantity: 2}},
		OrderType:     domain.OrderTypeDineIn,
		TableNumber:   "5",
		PaymentMethod: domain.PaymentMethodCash,
		CashTendered:  &tendered,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if !order.Subtotal.Equal(dec("500")) || !order.Tax.Equal(dec("60")) ||
		!order.ServiceCharge.Equal(dec("50")) || !order.TotalAmount.Equal(dec("610")) {
		t.Fatalf("totals = subtotal %s tax %s sc %s total %s",
			order.Subtotal, order.Tax, order.ServiceCharge, order.TotalAmount)
	}
	if order.Change == nil || !order.Change.Equal(dec("390")) {
		t.Fatalf("change = %v, want 390", order.Change)
	}

	day := order.CreatedAt.Format("20060102")
	if order.OrderNumber != "ORD-"+day+"-0001" {
		t.Fatalf("order number = %q", order.OrderNumber)
	}
	month := order.CreatedAt.Format("200601")
	if order.ReceiptNumber != "RCP-"+month+"-0001" {
		t.Fatalf("receipt number = %q", order.ReceiptNumber)
	}

	if order.OrderStatus != domain.OrderStatusPreparing || order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("status = %s/%s", order.OrderStatus, order.PaymentStatus)
	}
	if len(order.StatusLog) != 1 || order.StatusLog[0].From != nil || order.StatusLog[0].To != domain.OrderStatusPreparing {
		t.Fatalf("status log = %+v", order.StatusLog)
	}

	got, _ := svc.GetProduct(cashierCtx(), p.ID)
	if got.QuantityOnHand != 8 {
		t.Fatalf("stock after sale = %d, want 8", got.QuantityOnHand)
	}
	movements, _ := svc.ListMovements(cashierCtx(), p.ID, 10)
	if len(movements) != 1 || movements[0].Type != domain.MovementSale || movements[0].QuantityChange != -2 {
		t.Fatalf("sale movement = %+v", movements)
	}
}

func TestPlaceOrderVariantPricing(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Latte", SellingPrice: dec("120"),
		Variants: []domain.VariantInput{
			{Name: "12oz", QuantityOnHand: 5},
			{Name: "16oz", AdditionalPrice: dec("25"), QuantityOnHand: 5},
		},
	})
	large := p.Variants[1]

	order, err := svc.PlaceOrder(cashierCtx(), domain.PlaceOrderRequest{
		Items:         []domain.CartLine{{ProductID: p.ID, VariantID: &large.ID, Quantity: 2}},
		OrderType:     domain.OrderTypeTakeout,
		PaymentMethod: domain.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if !order.Subtotal.Equal(dec("290")) {
		t.Fatalf("subtotal = %s, want 290", order.Subtotal)
	}
	if order.Items[0].ItemName != "Latte (16oz)" {
		t.Fatalf("item name = %q", order.Items[0].ItemName)
	}

	got, _ := svc.GetProduct(cashierCtx(), p.ID)
	for _, v := range got.Variants {
		if v.ID == large.ID && v.QuantityOnHand != 3 {
			t.Fatalf("variant stock = %d, want 3", v.QuantityOnHand)
		}
	}

	// Variant products refuse variant-less carts.
	if _, err := svc.PlaceOrder(cashierCtx(), domain.PlaceOrderRequest{
		Items:         []domain.CartLine{{ProductID: p.ID, Quantity: 1}},
		OrderType:     domain.OrderTypeTakeout,
		PaymentMethod: domain.PaymentMethodCard,
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("missing variant should be invalid, got %v", err)
	}
}

func TestPlaceOrderInsufficientStockIsAtomic(t *testing.T) {
	svc, _ := newTestService(t)
	ok := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Plenty", SellingPrice: dec("100"), QuantityOnHand: 50,
	})
	scarce := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Scarce", SellingPrice: dec("100"), QuantityOnHand: 1,
	})

	_, err := svc.PlaceOrder(cashierCtx(), domain.PlaceOrderRequest{
		Items: []domain.CartLine{
			{ProductID: ok.ID, Quantity: 5},
			{ProductID: scarce.ID, Quantity: 2},
		},
		OrderType:     domain.OrderTypeTakeout,
		PaymentMethod: domain.PaymentMethodCard,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}

	// The whole checkout rolled back: no stock change, no orders, no movements.
	gotOK, _ := svc.GetProduct(cashierCtx(), ok.ID)
	if gotOK.QuantityOnHand != 50 {
		t.Fatalf("untouched product changed: %d", gotOK.QuantityOnHand)
	}
	orders, _ := svc.ListOrders(cashierCtx(), domain.OrderFilter{})
	if orders.Total != 0 {
		t.Fatalf("failed checkout persisted an order")
	}
	movements, _ := svc.ListMovements(cashierCtx(), ok.ID, 10)
	if len(movements) != 0 {
		t.Fatalf("failed checkout left movements: %d", len(movements))
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Item", SellingPrice: dec("100"), QuantityOnHand: 10,
	})
	short := dec("50")

	cases := []struct {
		name string
		req  domain.PlaceOrderRequest
		want error
	}{
		{"empty cart", domain.PlaceOrderRequest{
			OrderType: domain.OrderTypeTakeout, PaymentMethod: domain.PaymentMethodCard,
		}, ErrInvalidRequest},
		{"bad order type", domain.PlaceOrderRequest{
			Items:     []domain.CartLine{{ProductID: p.ID, Quantity: 1}},
			OrderType: "drive-thru", PaymentMethod: domain.PaymentMethodCard,
		}, ErrInvalidRequest},
		{"dine-in without table", domain.PlaceOrderRequest{
			Items:     []domain.CartLine{{ProductID: p.ID, Quantity: 1}},
			OrderType: domain.OrderTypeDineIn, PaymentMethod: domain.PaymentMethodCard,
		}, ErrInvalidRequest},
		{"bad payment method", domain.PlaceOrderRequest{
			Items:     []domain.CartLine{{ProductID: p.ID, Quantity: 1}},
			OrderType: domain.OrderTypeTakeout, PaymentMethod: "Check",
		}, ErrInvalidRequest},
		{"zero quantity", domain.PlaceOrderRequest{
			Items:     []domain.CartLine{{ProductID: p.ID, Quantity: 0}},
			OrderType: domain.OrderTypeTakeout, PaymentMethod: domain.PaymentMethodCard,
		}, ErrInvalidRequest},
		{"cash without tender", domain.PlaceOrderRequest{
			Items:     []domain.CartLine{{ProductID: p.ID, Quantity: 1}},
			OrderType: domain.OrderTypeTakeout, PaymentMethod: domain.PaymentMethodCash,
		}, ErrInvalidRequest},
		{"insufficient cash", domain.PlaceOrderRequest{
			Items:     []domain.CartLine{{ProductID: p.ID, Quantity: 1}},
			OrderType: domain.OrderTypeTakeout, PaymentMethod: domain.PaymentMethodCash,
			CashTendered: &short,
		}, ErrInsufficientCash},
	}
	for _, tc := range cases {
		if _, err := svc.PlaceOrder(cashierCtx(), tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: want %v, got %v", tc.name, tc.want, err)
		}
	}

	// None of the rejected carts may touch stock.
	got, _ := svc.GetProduct(cashierCtx(), p.ID)
	if got.QuantityOnHand != 10 {
		t.Fatalf("stock after rejected carts = %d, want 10", got.QuantityOnHand)
	}
}

func TestOrderNumbersIncrement(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Item", SellingPrice: dec("100"), QuantityOnHand: 10,
	})

	var last domain.Order
	for i := 0; i < 3; i++ {
		order, err := svc.PlaceOrder(cashierCtx(), domain.PlaceOrderRequest{
			Items:         []domain.CartLine{{ProductID: p.ID, Quantity: 1}},
			OrderType:     domain.OrderTypeTakeout,
			PaymentMethod: domain.PaymentMethodCard,
		})
		if err != nil {
			t.Fatalf("order %d: %v", i, err)
		}
		last = order
	}
	day := last.CreatedAt.Format("20060102")
	if last.OrderNumber != "ORD-"+day+"-0003" {
		t.Fatalf("order number = %q, want -0003", last.OrderNumber)
	}
}

func TestOrderStatusFlow(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Item", SellingPrice: dec("100"), QuantityOnHand: 10,
	})
	order, err := svc.PlaceOrder(cashierCtx(), domain.PlaceOrderRequest{
		Items:         []domain.CartLine{{ProductID: p.ID, Quantity: 1}},
		OrderType:     domain.OrderTypeTakeout,
		PaymentMethod: domain.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	served, err := svc.UpdateOrderStatus(cashierCtx(), order.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusServed})
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if len(served.StatusLog) != 2 || *served.StatusLog[1].From != domain.OrderStatusPreparing {
		t.Fatalf("status log = %+v", served.StatusLog)
	}

	completed, err := svc.UpdateOrderStatus(cashierCtx(), order.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusCompleted})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.CompletedAt == nil {
		t.Fatalf("CompletedAt not set")
	}

	if _, err := svc.UpdateOrderStatus(cashierCtx(), order.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusServed}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("terminal transition should conflict, got %v", err)
	}
	if _, err := svc.UpdateOrderStatus(cashierCtx(), order.ID, domain.OrderStatusUpdateRequest{Status: "Eaten"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("unknown status should be invalid, got %v", err)
	}
}

func TestCancelledOrderLeavesReports(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Item", SellingPrice: dec("100"), QuantityOnHand: 10,
	})
	order, err := svc.PlaceOrder(cashierCtx(), domain.PlaceOrderRequest{
		Items:         []domain.CartLine{{ProductID: p.ID, Quantity: 1}},
		OrderType:     domain.OrderTypeTakeout,
		PaymentMethod: domain.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	cancelled, err := svc.UpdateOrderStatus(cashierCtx(), order.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusCancelled})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.PaymentStatus != domain.PaymentStatusRefunded {
		t.Fatalf("payment status = %s, want Refunded", cancelled.PaymentStatus)
	}

	report, err := svc.DailyReport(adminCtx(), order.CreatedAt.Format("2006-01-02"))
	if err != nil {
		t.Fatalf("daily report: %v", err)
	}
	if report.Orders != 0 {
		t.Fatalf("cancelled order counted in report: %+v", report)
	}
}

func TestReceipt(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Adobo Bowl", SellingPrice: dec("250"), QuantityOnHand: 10,
	})
	tendered := dec("1000")
	order, err := svc.PlaceOrder(cashierCtx(), domain.PlaceOrderRequest{
		Items:         []domain.CartLine{{ProductID: p.ID, Quantity: 2}},
		OrderType:     domain.OrderTypeDineIn,
		TableNumber:   "7",
		PaymentMethod: domain.PaymentMethodCash,
		CashTendered:  &tendered,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	receipt, err := svc.Receipt(cashierCtx(), order.ID)
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if receipt.ReceiptNumber != order.ReceiptNumber {
		t.Fatalf("receipt number = %q", receipt.ReceiptNumber)
	}
	if receipt.Total != "₱610.00" {
		t.Fatalf("total = %q, want ₱610.00", receipt.Total)
	}
	if receipt.Change != "₱390.00" {
		t.Fatalf("change = %q, want ₱390.00", receipt.Change)
	}
	if len(receipt.Lines) != 1 || receipt.Lines[0].Amount != "₱500.00" {
		t.Fatalf("lines = %+v", receipt.Lines)
	}
}

func TestAnalytics(t *testing.T) {
	svc, _ := newTestService(t)
	bowl := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Bowl", SellingPrice: dec("100"), QuantityOnHand: 50,
	})
	shake := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Shake", SellingPrice: dec("80"), QuantityOnHand: 50,
	})

	place := func(productID string, qty int, method string) domain.Order {
		t.Helper()
		order, err := svc.PlaceOrder(cashierCtx(), domain.PlaceOrderRequest{
			Items:         []domain.CartLine{{ProductID: productID, Quantity: qty}},
			OrderType:     domain.OrderTypeTakeout,
			PaymentMethod: method,
		})
		if err != nil {
			t.Fatalf("place: %v", err)
		}
		return order
	}

	first := place(bowl.ID, 3, domain.PaymentMethodCard)
	place(shake.ID, 5, domain.PaymentMethodEWallet)
	place(bowl.ID, 1, domain.PaymentMethodCard)

	from := first.CreatedAt.Add(-time.Minute)
	revenue, err := svc.Revenue(cashierCtx(), from, time.Time{})
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if revenue.Orders != 3 {
		t.Fatalf("revenue orders = %d, want 3", revenue.Orders)
	}
	// 3*100*1.12 + 5*80*1.12 + 100*1.12 = 336 + 448 + 112
	if !revenue.Total.Equal(dec("896")) {
		t.Fatalf("revenue total = %s, want 896", revenue.Total)
	}
	if revenue.Label != "₱896.00" {
		t.Fatalf("revenue label = %q", revenue.Label)
	}

	top, err := svc.TopSellers(cashierCtx(), from, time.Time{}, 10)
	if err != nil {
		t.Fatalf("top sellers: %v", err)
	}
	if len(top) != 2 || top[0].ItemName != "Shake" || top[0].TotalQty != 5 {
		t.Fatalf("top sellers = %+v", top)
	}
	if top[1].ItemName != "Bowl" || top[1].TotalQty != 4 {
		t.Fatalf("top sellers = %+v", top)
	}

	report, err := svc.DailyReport(adminCtx(), first.CreatedAt.Format("2006-01-02"))
	if err != nil {
		t.Fatalf("daily report: %v", err)
	}
	if report.Orders != 3 || !report.NetSales.Equal(dec("896")) {
		t.Fatalf("report = %+v", report)
	}
	if len(report.ByPayment) != 2 {
		t.Fatalf("byPayment = %+v", report.ByPayment)
	}
}

func TestDailyReportRejectsBadDate(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.DailyReport(adminCtx(), "29-08-2026"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("want ErrInvalidRequest, got %v", err)
	}
}
