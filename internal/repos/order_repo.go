package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"butik/internal/domain"
)

type OrderRepo struct {
	db    *sqlx.DB
	prods *ProductRepo
}

func NewOrderRepo(db *sqlx.DB, prods *ProductRepo) *OrderRepo {
	return &OrderRepo{db: db, prods: prods}
}

// Create persists the order header and its items as one atomic unit.
func (r *OrderRepo) Create(o domain.Order, items []domain.OrderItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO orders(id, user_id, status, total_price, shipping_method, shipping_address, shipping_cost, transfer_proof)
	  VALUES(?, ?, ?, ?, ?, ?, ?, NULL)
	`, o.ID, o.UserID, o.Status, o.TotalPrice, o.ShippingMethod, o.ShippingAddress, o.ShippingCost); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(id, order_id, product_id, quantity, unit_price)
		  VALUES(?, ?, ?, ?, ?)
		`, it.ID, o.ID, it.ProductID, it.Quantity, it.UnitPrice); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(orderID string) (domain.Order, []OrderItemDetail, error) {
	var o domain.Order
	err := r.db.Get(&o, `
	  SELECT id, user_id, status, total_price, shipping_method, shipping_address,
	         shipping_cost, COALESCE(transfer_proof,'') AS transfer_proof, created_at, updated_at
	  FROM orders WHERE id = ?
	`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if err != nil {
		return domain.Order{}, nil, err
	}
	items, err := r.items(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	return o, items, nil
}

type OrderItemDetail struct {
	ID          string  `db:"id" json:"id"`
	OrderID     string  `db:"order_id" json:"order_id"`
	ProductID   string  `db:"product_id" json:"product_id"`
	Quantity    int     `db:"quantity" json:"quantity"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
	ProductName string  `db:"product_name" json:"product_name"`
	Subtotal    float64 `db:"subtotal" json:"subtotal"`
}

func (r *OrderRepo) items(orderID string) ([]OrderItemDetail, error) {
	items := []OrderItemDetail{}
	err := r.db.Select(&items, `
	  SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price,
	         COALESCE(p.name,'') AS product_name,
	         (oi.quantity * oi.unit_price) AS subtotal
	  FROM order_items oi LEFT JOIN products p ON p.id = oi.product_id
	  WHERE oi.order_id = ?
	  ORDER BY oi.id
	`, orderID)
	return items, err
}

// AttachProofResult reports what the attach did. Decremented is false on the
// idempotent re-upload path; OldProof carries the replaced reference so the
// caller can remove the stale file.
type AttachProofResult struct {
	Decremented bool
	OldProof    string
}

// AttachProof records a payment proof reference. The first attachment is the
// one-time trigger that decrements stock for every line item; all decrements
// and the proof update commit together or not at all. A later attachment only
// replaces the reference.
func (r *OrderRepo) AttachProof(orderID, proofRef string) (AttachProofResult, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return AttachProofResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var current sql.NullString
	err = tx.Get(&current, `SELECT transfer_proof FROM orders WHERE id = ?`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return AttachProofResult{}, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if err != nil {
		return AttachProofResult{}, err
	}

	res := AttachProofResult{}
	if current.Valid && current.String != "" {
		// Re-upload: replace the reference, no stock effect.
		res.OldProof = current.String
	} else {
		type line struct {
			ProductID string `db:"product_id"`
			Quantity  int    `db:"quantity"`
		}
		var lines []line
		if err := tx.Select(&lines, `SELECT product_id, quantity FROM order_items WHERE order_id = ?`, orderID); err != nil {
			return AttachProofResult{}, err
		}
		for _, l := range lines {
			if err := r.prods.DecrementStock(tx, l.ProductID, l.Quantity); err != nil {
				return AttachProofResult{}, err
			}
		}
		res.Decremented = true
	}

	if _, err := tx.Exec(`UPDATE orders SET transfer_proof = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		proofRef, orderID); err != nil {
		return AttachProofResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttachProofResult{}, err
	}
	return res, nil
}

// Patch enumerates the optional fields of a partial update, each mapped to
// its column in one parameterized statement.
type Patch struct {
	Status          *domain.Status
	ShippingMethod  *string
	ShippingAddress *string
	ShippingCost    *float64
}

func (p Patch) Empty() bool {
	return p.Status == nil && p.ShippingMethod == nil && p.ShippingAddress == nil && p.ShippingCost == nil
}

func (r *OrderRepo) Update(orderID string, p Patch) error {
	res, err := r.db.Exec(`
	  UPDATE orders SET
	    status           = COALESCE(?, status),
	    shipping_method  = COALESCE(?, shipping_method),
	    shipping_address = COALESCE(?, shipping_address),
	    shipping_cost    = COALESCE(?, shipping_cost),
	    updated_at       = CURRENT_TIMESTAMP
	  WHERE id = ?
	`, p.Status, p.ShippingMethod, p.ShippingAddress, p.ShippingCost, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return nil
}

// Delete removes items then header atomically. Stock already moved by a past
// reconciliation stays moved; deletion is administrative, not a cancellation.
func (r *OrderRepo) Delete(orderID string) (string, error) {
	var proof sql.NullString
	err := r.db.Get(&proof, `SELECT transfer_proof FROM orders WHERE id = ?`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if err != nil {
		return "", err
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return "", err
	}
	if _, err := tx.Exec(`DELETE FROM orders WHERE id = ?`, orderID); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return proof.String, nil
}

type OrderSummary struct {
	domain.Order
	UserName  string            `db:"user_name" json:"user_name"`
	UserEmail string            `db:"user_email" json:"user_email"`
	Items     []OrderItemDetail `json:"items"`
}

type ListFilter struct {
	UserID string
	Status domain.Status
	Limit  int
	Offset int
}

// List returns orders newest first with items attached.
func (r *OrderRepo) List(f ListFilter) ([]OrderSummary, int, error) {
	where := `1=1`
	args := []any{}
	if f.UserID != "" {
		where += ` AND o.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where += ` AND o.status = ?`
		args = append(args, f.Status)
	}

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM orders o WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 10
	}
	type row struct {
		domain.Order
		UserName  string `db:"user_name"`
		UserEmail string `db:"user_email"`
	}
	rows := []row{}
	q := `
	  SELECT o.id, o.user_id, o.status, o.total_price, o.shipping_method, o.shipping_address,
	         o.shipping_cost, COALESCE(o.transfer_proof,'') AS transfer_proof, o.created_at, o.updated_at,
	         COALESCE(u.name,'') AS user_name, COALESCE(u.email,'') AS user_email
	  FROM orders o LEFT JOIN users u ON u.id = o.user_id
	  WHERE ` + where + `
	  ORDER BY datetime(o.created_at) DESC, o.id
	  LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)
	if err := r.db.Select(&rows, q, args...); err != nil {
		return nil, 0, err
	}

	out := make([]OrderSummary, 0, len(rows))
	for _, x := range rows {
		items, err := r.items(x.ID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, OrderSummary{Order: x.Order, UserName: x.UserName, UserEmail: x.UserEmail, Items: items})
	}
	return out, total, nil
}

// StatusSummary counts orders per status, optionally scoped to one user.
func (r *OrderRepo) StatusSummary(userID string) (map[domain.Status]int, error) {
	type row struct {
		Status domain.Status `db:"status"`
		N      int           `db:"n"`
	}
	rows := []row{}
	q := `SELECT status, COUNT(*) AS n FROM orders`
	args := []any{}
	if userID != "" {
		q += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	q += ` GROUP BY status`
	if err := r.db.Select(&rows, q, args...); err != nil {
		return nil, err
	}
	out := map[domain.Status]int{}
	for _, x := range rows {
		out[x.Status] = x.N
	}
	return out, nil
}
