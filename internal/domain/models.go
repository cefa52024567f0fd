// Package domain holds the core types shared by the store, service and
// HTTP layers. Monetary amounts are decimal.Decimal throughout; JSON
// encoding renders them as strings so clients never see float drift.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products; ParentID allows one level of nesting.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CategoryCreateRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId,omitempty"`
}

type CategoryUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parentId,omitempty"`
}

// Variant is a sellable variation of a product. AdditionalPrice is
// added to the product's SellingPrice at checkout. Quantity is tracked
// per variant when a product has variants.
type Variant struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	AdditionalPrice decimal.Decimal `json:"additionalPrice"`
	QuantityOnHand  int             `json:"quantityOnHand"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type Product struct {
	ID                string          `json:"id"`
	CategoryID        *string         `json:"categoryId,omitempty"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Image             string          `json:"image,omitempty"`
	CostPrice         decimal.Decimal `json:"costPrice"`
	SellingPrice      decimal.Decimal `json:"sellingPrice"`
	QuantityOnHand    int             `json:"quantityOnHand"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	Variants          []Variant       `json:"variants,omitempty"`
	IsArchived        bool            `json:"isArchived"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// VariantInput is the inline variant payload accepted on product create.
type VariantInput struct {
	Name            string          `json:"name"`
	AdditionalPrice decimal.Decimal `json:"additionalPrice"`
	QuantityOnHand  int             `json:"quantityOnHand"`
}

type ProductCreateRequest struct {
	CategoryID        *string         `json:"categoryId,omitempty"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Image             string          `json:"image,omitempty"`
	CostPrice         decimal.Decimal `json:"costPrice"`
	SellingPrice      decimal.Decimal `json:"sellingPrice"`
	QuantityOnHand    int             `json:"quantityOnHand"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	Variants          []VariantInput  `json:"variants,omitempty"`
}

// ProductUpdateRequest uses pointers so absent fields are left untouched.
type ProductUpdateRequest struct {
	CategoryID        *string          `json:"categoryId,omitempty"`
	Name              *string          `json:"name,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Image             *string          `json:"image,omitempty"`
	CostPrice         *decimal.Decimal `json:"costPrice,omitempty"`
	SellingPrice      *decimal.Decimal `json:"sellingPrice,omitempty"`
	LowStockThreshold *int             `json:"lowStockThreshold,omitempty"`
}

// Stock movement types. STOCK_IN increases quantity; ADJUSTMENT and
// WASTAGE decrease it; SALE rows are written by checkout.
const (
	MovementSale       = "SALE"
	MovementStockIn    = "STOCK_IN"
	MovementAdjustment = "ADJUSTMENT"
	MovementWastage    = "WASTAGE"
)

// StockMovement is one row of the append-only stock ledger.
// NewQuantity is always PreviousQuantity + QuantityChange.
type StockMovement struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"productId"`
	VariantID        *string   `json:"variantId,omitempty"`
	Type             string    `json:"type"`
	QuantityChange   int       `json:"quantityChange"`
	PreviousQuantity int       `json:"previousQuantity"`
	NewQuantity      int       `json:"newQuantity"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// StockAdjustRequest carries a manual stock adjustment. Quantity is a
// magnitude; the sign is derived from Type.
type StockAdjustRequest struct {
	ProductID string  `json:"productId"`
	VariantID *string `json:"variantId,omitempty"`
	Quantity  int     `json:"quantity"`
	Type      string  `json:"type"`
	Notes     string  `json:"notes,omitempty"`
}

const (
	OrderTypeDineIn   = "dine-in"
	OrderTypeTakeout  = "takeout"
	OrderTypeDelivery = "delivery"
)

const (
	OrderStatusPreparing = "Preparing"
	OrderStatusServed    = "Served"
	OrderStatusCompleted = "Completed"
	OrderStatusCancelled = "Cancelled"
)

const (
	PaymentStatusPaid     = "Paid"
	PaymentStatusUnpaid   = "Unpaid"
	PaymentStatusRefunded = "Refunded"
)

const (
	PaymentMethodCash    = "Cash"
	PaymentMethodCard    = "Card"
	PaymentMethodEWallet = "E-wallet"
)

// CanTransition reports whether an order may move between the two
// statuses. Completed and Cancelled are terminal.
func CanTransition(from, to string) bool {
	switch from {
	case OrderStatusPreparing:
		return to == OrderStatusServed || to == OrderStatusCancelled
	case OrderStatusServed:
		return to == OrderStatusCompleted || to == OrderStatusCancelled
	default:
		return false
	}
}

// StatusChange is one entry in an order's status log. From is nil for
// the initial entry written at checkout.
type StatusChange struct {
	From *string   `json:"from"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}

type Order struct {
	ID            string           `json:"id"`
	OrderNumber   string           `json:"orderNumber"`
	ReceiptNumber string           `json:"receiptNumber"`
	TableNumber   string           `json:"tableNumber,omitempty"`
	OrderType     string           `json:"orderType"`
	OrderStatus   string           `json:"orderStatus"`
	PaymentStatus string           `json:"paymentStatus"`
	PaymentMethod string           `json:"paymentMethod"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Tax           decimal.Decimal  `json:"tax"`
	Discount      decimal.Decimal  `json:"discount"`
	ServiceCharge decimal.Decimal  `json:"serviceCharge"`
	TotalAmount   decimal.Decimal  `json:"totalAmount"`
	CashTendered  *decimal.Decimal `json:"cashTendered,omitempty"`
	Change        *decimal.Decimal `json:"change,omitempty"`
	StatusLog     []StatusChange   `json:"statusLog"`
	Items         []OrderItem      `json:"items"`
	CreatedAt     time.Time        `json:"createdAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
}

type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	ProductID string          `json:"productId"`
	VariantID *string         `json:"variantId,omitempty"`
	ItemName  string          `json:"itemName"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Modifiers []string        `json:"modifiers,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartLine is one line of a checkout request, resolved against the
// catalog at checkout time.
type CartLine struct {
	ProductID string   `json:"productId"`
	VariantID *string  `json:"variantId,omitempty"`
	Quantity  int      `json:"quantity"`
	Modifiers []string `json:"modifiers,omitempty"`
}

type PlaceOrderRequest struct {
	Items         []CartLine       `json:"items"`
	OrderType     string           `json:"orderType"`
	TableNumber   string           `json:"tableNumber,omitempty"`
	PaymentMethod string           `json:"paymentMethod"`
	Discount      decimal.Decimal  `json:"discount"`
	CashTendered  *decimal.Decimal `json:"cashTendered,omitempty"`
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

// OrderFilter narrows order listings. A zero filter lists everything,
// newest first.
type OrderFilter struct {
	From          *time.Time
	To            *time.Time
	PaymentStatus string
	Limit         int
	Offset        int
}

type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}

// VariantSales is one row of the top-sellers report.
type VariantSales struct {
	ProductID string  `json:"productId"`
	VariantID *string `json:"variantId,omitempty"`
	ItemName  string  `json:"itemName"`
	TotalQty  int     `json:"totalQty"`
}

type PaymentBreakdown struct {
	Method string          `json:"method"`
	Orders int             `json:"orders"`
	Amount decimal.Decimal `json:"amount"`
}

// DailySalesReport aggregates paid orders for one calendar day.
type DailySalesReport struct {
	Date          string             `json:"date"`
	Orders        int                `json:"orders"`
	GrossSales    decimal.Decimal    `json:"grossSales"`
	Discount      decimal.Decimal    `json:"discount"`
	Tax           decimal.Decimal    `json:"tax"`
	ServiceCharge decimal.Decimal    `json:"serviceCharge"`
	NetSales      decimal.Decimal    `json:"netSales"`
	ByPayment     []PaymentBreakdown `json:"byPayment"`
}

// ReceiptLine is one printed line of a receipt; Amount is already
// currency-formatted.
type ReceiptLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Amount   string `json:"amount"`
}

// ReceiptResponse is the printable view of a paid order. All money
// fields are formatted strings.
type ReceiptResponse struct {
	ReceiptNumber string        `json:"receiptNumber"`
	OrderNumber   string        `json:"orderNumber"`
	OrderType     string        `json:"orderType"`
	TableNumber   string        `json:"tableNumber,omitempty"`
	IssuedAt      time.Time     `json:"issuedAt"`
	Lines         []ReceiptLine `json:"lines"`
	Subtotal      string        `json:"subtotal"`
	Discount      string        `json:"discount,omitempty"`
	Tax           string        `json:"tax"`
	ServiceCharge string        `json:"serviceCharge,omitempty"`
	Total         string        `json:"total"`
	PaymentMethod string        `json:"paymentMethod"`
	CashTendered  string        `json:"cashTendered,omitempty"`
	Change        string        `json:"change,omitempty"`
}

// Actor identifies the authenticated user on a request context.
type Actor struct {
	Username string
	Name     string
	Role     string
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

// UserAccount is a cashier or admin login. PasswordHash is a bcrypt hash
// and never serialized.
type UserAccount struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FormatCurrency renders an amount as a peso string with thousands
// separators, e.g. 1234.5 -> "₱1,234.50".
func FormatCurrency(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	s := amount.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₱")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}
