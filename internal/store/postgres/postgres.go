// Package postgres implements store.Store on PostgreSQL via the pgx
// stdlib driver. Checkout and stock movements run in serializable
// transactions with row locks so the ledger invariants hold under
// concurrent cashiers.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"tindapos/backend/internal/domain"
	"tindapos/backend/internal/store"
	"tindapos/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// ---- categories ----

func (s *Store) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	cat := domain.Category{
		ID:       xid.New("cat"),
		Name:     req.Name,
		ParentID: req.ParentID,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, name, parent_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, cat.ID, cat.Name, cat.ParentID).Scan(&cat.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Category{}, fmt.Errorf("category %q: %w", req.Name, store.ErrConflict)
		}
		return domain.Category{}, err
	}
	return cat, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, parent_id, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		var parent sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &parent, &c.CreatedAt); err != nil {
			return nil, err
		}
		if parent.Valid {
			c.ParentID = &parent.String
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, id string, req domain.CategoryUpdateRequest) (domain.Category, error) {
	if req.ParentID != nil && *req.ParentID == id {
		return domain.Category{}, fmt.Errorf("category %s cannot parent itself: %w", id, store.ErrConflict)
	}
	var c domain.Category
	var parent sql.NullString
	err := s.db.QueryRowContext(ctx, `
		UPDATE categories
		SET name = COALESCE($2, name), parent_id = COALESCE($3, parent_id)
		WHERE id = $1
		RETURNING id, name, parent_id, created_at
	`, id, req.Name, req.ParentID).Scan(&c.ID, &c.Name, &parent, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, fmt.Errorf("category %s: %w", id, store.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return domain.Category{}, fmt.Errorf("category name taken: %w", store.ErrConflict)
		}
		return domain.Category{}, err
	}
	if parent.Valid {
		c.ParentID = &parent.String
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("category %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ---- products ----

func (s *Store) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, err
	}
	defer tx.Rollback()

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
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO products (id, category_id, name, description, image, cost_price,
			selling_price, quantity_on_hand, low_stock_threshold)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at
	`, p.ID, p.CategoryID, p.Name, p.Description, p.Image, p.CostPrice,
		p.SellingPrice, p.QuantityOnHand, p.LowStockThreshold).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Product{}, fmt.Errorf("category: %w", store.ErrNotFound)
		}
		return domain.Product{}, err
	}

	for _, v := range req.Variants {
		variant := domain.Variant{
			ID:              xid.New("var"),
			ProductID:       p.ID,
			Name:            v.Name,
			AdditionalPrice: v.AdditionalPrice,
			QuantityOnHand:  v.QuantityOnHand,
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO product_variants (id, product_id, name, additional_price, quantity_on_hand)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING created_at
		`, variant.ID, variant.ProductID, variant.Name, variant.AdditionalPrice,
			variant.QuantityOnHand).Scan(&variant.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Product{}, fmt.Errorf("variant %q: %w", v.Name, store.ErrConflict)
			}
			return domain.Product{}, err
		}
		p.Variants = append(p.Variants, variant)
	}

	if err := tx.Commit(); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

const productColumns = `id, category_id, name, description, image, cost_price,
	selling_price, quantity_on_hand, low_stock_threshold, is_archived, created_at, updated_at`

func scanProduct(sc interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	var category sql.NullString
	err := sc.Scan(&p.ID, &category, &p.Name, &p.Description, &p.Image, &p.CostPrice,
		&p.SellingPrice, &p.QuantityOnHand, &p.LowStockThreshold, &p.IsArchived,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if category.Valid {
		p.CategoryID = &category.String
	}
	return p, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
		}
		return domain.Product{}, err
	}
	variants, err := s.variantsFor(ctx, []string{id})
	if err != nil {
		return domain.Product{}, err
	}
	p.Variants = variants[id]
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, includeArchived bool) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_archived = false OR $1
		ORDER BY name
	`, includeArchived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	ids := make([]string, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	variants, err := s.variantsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Variants = variants[products[i].ID]
	}
	return products, nil
}

func (s *Store) variantsFor(ctx context.Context, productIDs []string) (map[string][]domain.Variant, error) {
	out := map[string][]domain.Variant{}
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, name, additional_price, quantity_on_hand, created_at
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY product_id, name
	`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.AdditionalPrice,
			&v.QuantityOnHand, &v.CreatedAt); err != nil {
			return nil, err
		}
		out[v.ProductID] = append(out[v.ProductID], v)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	var cost decimal.NullDecimal
	if req.CostPrice != nil {
		cost = decimal.NullDecimal{Decimal: *req.CostPrice, Valid: true}
	}
	var selling decimal.NullDecimal
	if req.SellingPrice != nil {
		selling = decimal.NullDecimal{Decimal: *req.SellingPrice, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET category_id         = COALESCE($2, category_id),
			name                = COALESCE($3, name),
			description         = COALESCE($4, description),
			image               = COALESCE($5, image),
			cost_price          = COALESCE($6, cost_price),
			selling_price       = COALESCE($7, selling_price),
			low_stock_threshold = COALESCE($8, low_stock_threshold),
			updated_at          = now()
		WHERE id = $1
	`, id, req.CategoryID, req.Name, req.Description, req.Image,
		cost, selling, req.LowStockThreshold)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Product{}, fmt.Errorf("category: %w", store.ErrNotFound)
		}
		return domain.Product{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Product{}, err
	}
	if affected == 0 {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) ArchiveProduct(ctx context.Context, id string) (domain.Product, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET is_archived = true, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return domain.Product{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Product{}, err
	}
	if affected == 0 {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) ListLowStock(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE is_archived = false
		  AND (
			(NOT EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id)
				AND quantity_on_hand <= low_stock_threshold)
			OR EXISTS (
				SELECT 1 FROM product_variants v
				WHERE v.product_id = p.id AND v.quantity_on_hand <= p.low_stock_threshold
			)
		  )
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 16)
	ids := make([]string, 0, 16)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	variants, err := s.variantsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Variants = variants[products[i].ID]
	}
	return products, nil
}

// ---- stock ledger ----

func (s *Store) ApplyMovement(ctx context.Context, req domain.StockAdjustRequest) (domain.StockMovement, error) {
	change, err := movementChange(req.Type, req.Quantity)
	if err != nil {
		return domain.StockMovement{}, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.StockMovement{}, err
	}
	defer tx.Rollback()

	mv, err := applyMovementTx(ctx, tx, req.ProductID, req.VariantID, req.Type, change, req.Notes)
	if err != nil {
		return domain.StockMovement{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.StockMovement{}, err
	}
	return mv, nil
}

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

// applyMovementTx locks the tracked row, writes one ledger entry and
// updates the snapshot. Shared by manual adjustments and checkout.
func applyMovementTx(ctx context.Context, tx *sql.Tx, productID string, variantID *string,
	movementType string, change int, notes string) (domain.StockMovement, error) {

	var prev int
	if variantID == nil {
		err := tx.QueryRowContext(ctx, `
			SELECT quantity_on_hand FROM products WHERE id = $1 FOR UPDATE
		`, productID).Scan(&prev)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.StockMovement{}, fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
			}
			return domain.StockMovement{}, err
		}
	} else {
		err := tx.QueryRowContext(ctx, `
			SELECT quantity_on_hand FROM product_variants
			WHERE id = $1 AND product_id = $2 FOR UPDATE
		`, *variantID, productID).Scan(&prev)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.StockMovement{}, fmt.Errorf("variant %s: %w", *variantID, store.ErrNotFound)
			}
			return domain.StockMovement{}, err
		}
	}

	next := prev + change
	if next < 0 {
		return domain.StockMovement{}, fmt.Errorf("product %s: have %d, change %d: %w",
			productID, prev, change, store.ErrInsufficientStock)
	}

	if variantID == nil {
		_, err := tx.ExecContext(ctx, `
			UPDATE products SET quantity_on_hand = $2, updated_at = now() WHERE id = $1
		`, productID, next)
		if err != nil {
			return domain.StockMovement{}, err
		}
	} else {
		_, err := tx.ExecContext(ctx, `
			UPDATE product_variants SET quantity_on_hand = $2 WHERE id = $1
		`, *variantID, next)
		if err != nil {
			return domain.StockMovement{}, err
		}
	}

	mv := domain.StockMovement{
		ID:               xid.New("mov"),
		ProductID:        productID,
		VariantID:        variantID,
		Type:             movementType,
		QuantityChange:   change,
		PreviousQuantity: prev,
		NewQuantity:      next,
		Notes:            notes,
	}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO stock_movements (id, product_id, variant_id, movement_type,
			quantity_change, previous_quantity, new_quantity, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, mv.ID, mv.ProductID, mv.VariantID, mv.Type, mv.QuantityChange,
		mv.PreviousQuantity, mv.NewQuantity, mv.Notes).Scan(&mv.CreatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return domain.StockMovement{}, fmt.Errorf("product %s: %w", productID, store.ErrInsufficientStock)
		}
		return domain.StockMovement{}, err
	}
	return mv, nil
}

func (s *Store) ListMovements(ctx context.Context, productID string, limit int) ([]domain.StockMovement, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)
	`, productID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
	}

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, variant_id, movement_type, quantity_change,
			previous_quantity, new_quantity, notes, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		var mv domain.StockMovement
		var variant sql.NullString
		if err := rows.Scan(&mv.ID, &mv.ProductID, &variant, &mv.Type, &mv.QuantityChange,
			&mv.PreviousQuantity, &mv.NewQuantity, &mv.Notes, &mv.CreatedAt); err != nil {
			return nil, err
		}
		if variant.Valid {
			mv.VariantID = &variant.String
		}
		out = append(out, mv)
	}
	return out, rows.Err()
}

// ---- orders ----

// nextCounter reserves the next value of a named counter inside the
// checkout transaction, so numbers are gapless per scope and the
// reservation rolls back with the rest of the checkout.
func nextCounter(ctx context.Context, tx *sql.Tx, scope string) (int, error) {
	var value int
	err := tx.QueryRowContext(ctx, `
		INSERT INTO order_counters (scope, value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = order_counters.value + 1
		RETURNING value
	`, scope).Scan(&value)
	return value, err
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.Order{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	order.ID = xid.New("ord")
	order.CreatedAt = now

	daySeq, err := nextCounter(ctx, tx, "ord:"+now.Format("20060102"))
	if err != nil {
		return domain.Order{}, err
	}
	order.OrderNumber = fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), daySeq)

	monthSeq, err := nextCounter(ctx, tx, "rcp:"+now.Format("200601"))
	if err != nil {
		return domain.Order{}, err
	}
	order.ReceiptNumber = fmt.Sprintf("RCP-%s-%04d", now.Format("200601"), monthSeq)

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = xid.New("itm")
		item.OrderID = order.ID
		if _, err := applyMovementTx(ctx, tx, item.ProductID, item.VariantID,
			domain.MovementSale, -item.Quantity, "order "+order.OrderNumber); err != nil {
			return domain.Order{}, err
		}
	}

	statusLog, err := json.Marshal(order.StatusLog)
	if err != nil {
		return domain.Order{}, err
	}
	var tendered, change decimal.NullDecimal
	if order.CashTendered != nil {
		tendered = decimal.NullDecimal{Decimal: *order.CashTendered, Valid: true}
	}
	if order.Change != nil {
		change = decimal.NullDecimal{Decimal: *order.Change, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, receipt_number, table_number, order_type,
			order_status, payment_status, payment_method, subtotal, tax, discount,
			service_charge, total_amount, cash_tendered, change_due, status_log, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, order.ID, order.OrderNumber, order.ReceiptNumber, order.TableNumber, order.OrderType,
		order.OrderStatus, order.PaymentStatus, order.PaymentMethod, order.Subtotal, order.Tax,
		order.Discount, order.ServiceCharge, order.TotalAmount, tendered, change, statusLog, order.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	for _, item := range order.Items {
		modifiers, err := json.Marshal(item.Modifiers)
		if err != nil {
			return domain.Order{}, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, variant_id, item_name,
				quantity, price, modifiers, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, item.ID, item.OrderID, item.ProductID, item.VariantID, item.ItemName,
			item.Quantity, item.Price, modifiers, item.Subtotal)
		if err != nil {
			return domain.Order{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

const orderColumns = `id, order_number, receipt_number, table_number, order_type,
	order_status, payment_status, payment_method, subtotal, tax, discount,
	service_charge, total_amount, cash_tendered, change_due, status_log, created_at, completed_at`

func scanOrder(sc interface{ Scan(...any) error }) (domain.Order, error) {
	var o domain.Order
	var tendered, change decimal.NullDecimal
	var statusLog []byte
	var completed sql.NullTime
	err := sc.Scan(&o.ID, &o.OrderNumber, &o.ReceiptNumber, &o.TableNumber, &o.OrderType,
		&o.OrderStatus, &o.PaymentStatus, &o.PaymentMethod, &o.Subtotal, &o.Tax, &o.Discount,
		&o.ServiceCharge, &o.TotalAmount, &tendered, &change, &statusLog, &o.CreatedAt, &completed)
	if err != nil {
		return domain.Order{}, err
	}
	if tendered.Valid {
		o.CashTendered = &tendered.Decimal
	}
	if change.Valid {
		o.Change = &change.Decimal
	}
	if completed.Valid {
		o.CompletedAt = &completed.Time
	}
	if len(statusLog) > 0 {
		if err := json.Unmarshal(statusLog, &o.StatusLog); err != nil {
			return domain.Order{}, fmt.Errorf("decode status log for %s: %w", o.ID, err)
		}
	}
	return o, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, fmt.Errorf("order %s: %w", id, store.ErrNotFound)
		}
		return domain.Order{}, err
	}
	o.Items, err = s.itemsFor(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *Store) itemsFor(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, variant_id, item_name, quantity, price, modifiers, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY item_name
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0, 8)
	for rows.Next() {
		var item domain.OrderItem
		var variant sql.NullString
		var modifiers []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &variant, &item.ItemName,
			&item.Quantity, &item.Price, &modifiers, &item.Subtotal); err != nil {
			return nil, err
		}
		if variant.Valid {
			item.VariantID = &variant.String
		}
		if len(modifiers) > 0 {
			if err := json.Unmarshal(modifiers, &item.Modifiers); err != nil {
				return nil, fmt.Errorf("decode modifiers for %s: %w", item.ID, err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderListResponse, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		where = append(where, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return domain.OrderListResponse{}, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return domain.OrderListResponse{}, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return domain.OrderListResponse{}, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return domain.OrderListResponse{}, err
	}

	for i := range orders {
		orders[i].Items, err = s.itemsFor(ctx, orders[i].ID)
		if err != nil {
			return domain.OrderListResponse{}, err
		}
	}
	return domain.OrderListResponse{Orders: orders, Total: total}, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id, status string, at time.Time) (domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.Order{}, err
	}
	defer tx.Rollback()

	var current string
	var rawLog []byte
	err = tx.QueryRowContext(ctx, `
		SELECT order_status, status_log FROM orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&current, &rawLog)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, fmt.Errorf("order %s: %w", id, store.ErrNotFound)
		}
		return domain.Order{}, err
	}
	if !domain.CanTransition(current, status) {
		return domain.Order{}, fmt.Errorf("order %s: %s -> %s: %w", id, current, status, store.ErrConflict)
	}

	var statusLog []domain.StatusChange
	if len(rawLog) > 0 {
		if err := json.Unmarshal(rawLog, &statusLog); err != nil {
			return domain.Order{}, fmt.Errorf("decode status log for %s: %w", id, err)
		}
	}
	from := current
	statusLog = append(statusLog, domain.StatusChange{From: &from, To: status, At: at})
	newLog, err := json.Marshal(statusLog)
	if err != nil {
		return domain.Order{}, err
	}

	var completed any
	if status == domain.OrderStatusCompleted {
		completed = at
	}
	paymentStatusExpr := "payment_status"
	if status == domain.OrderStatusCancelled {
		paymentStatusExpr = "'" + domain.PaymentStatusRefunded + "'"
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET order_status = $2,
			status_log = $3,
			completed_at = COALESCE($4::timestamptz, completed_at),
			payment_status = `+paymentStatusExpr+`
		WHERE id = $1
	`, id, status, newLog, completed)
	if err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	return s.GetOrder(ctx, id)
}

// ---- analytics ----

func (s *Store) RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	var total decimal.Decimal
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM orders
		WHERE payment_status = $1 AND created_at >= $2 AND created_at < $3
	`, domain.PaymentStatusPaid, from, to).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return total, count, nil
}

func (s *Store) TopSellers(ctx context.Context, from, to time.Time, limit int) ([]domain.VariantSales, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.product_id, i.variant_id, i.item_name, SUM(i.quantity) AS total_qty
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.payment_status = $1 AND o.created_at >= $2 AND o.created_at < $3
		GROUP BY i.product_id, i.variant_id, i.item_name
		ORDER BY total_qty DESC, i.item_name
		LIMIT $4
	`, domain.PaymentStatusPaid, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.VariantSales, 0, limit)
	for rows.Next() {
		var row domain.VariantSales
		var variant sql.NullString
		if err := rows.Scan(&row.ProductID, &variant, &row.ItemName, &row.TotalQty); err != nil {
			return nil, err
		}
		if variant.Valid {
			row.VariantID = &variant.String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) DailyReport(ctx context.Context, day time.Time) (domain.DailySalesReport, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	report := domain.DailySalesReport{Date: from.Format("2006-01-02")}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(subtotal), 0), COALESCE(SUM(discount), 0),
			COALESCE(SUM(tax), 0), COALESCE(SUM(service_charge), 0), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE payment_status = $1 AND created_at >= $2 AND created_at < $3
	`, domain.PaymentStatusPaid, from, to).Scan(&report.Orders, &report.GrossSales,
		&report.Discount, &report.Tax, &report.ServiceCharge, &report.NetSales)
	if err != nil {
		return domain.DailySalesReport{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payment_method, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE payment_status = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY payment_method
		ORDER BY payment_method
	`, domain.PaymentStatusPaid, from, to)
	if err != nil {
		return domain.DailySalesReport{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var bd domain.PaymentBreakdown
		if err := rows.Scan(&bd.Method, &bd.Orders, &bd.Amount); err != nil {
			return domain.DailySalesReport{}, err
		}
		report.ByPayment = append(report.ByPayment, bd)
	}
	return report, rows.Err()
}

// ---- auth ----

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.UserAccount, error) {
	var u domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, name, role, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UserAccount{}, fmt.Errorf("user %s: %w", username, store.ErrNotFound)
		}
		return domain.UserAccount{}, err
	}
	return u, nil
}
