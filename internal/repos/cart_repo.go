package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"butik/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// EnsureCart looks up the user's single cart, creating it on first use.
func (r *CartRepo) EnsureCart(userID string) (string, error) {
	var cartID string
	if err := r.db.Get(&cartID, `SELECT id FROM carts WHERE user_id = ?`, userID); err == nil {
		return cartID, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	cartID = uuid.NewString()
	if _, err := r.db.Exec(`INSERT INTO carts(id, user_id) VALUES(?, ?)`, cartID, userID); err != nil {
		return "", err
	}
	return cartID, nil
}

// ItemQuantity returns the current quantity of a product in a cart, 0 if absent.
func (r *CartRepo) ItemQuantity(cartID, productID string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `SELECT quantity FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return qty, err
}

// UpsertItem inserts the line or adds qty to the existing one. The returned
// flag is true when a new line was created.
func (r *CartRepo) UpsertItem(cartID, productID string, qty int) (domain.CartItem, bool, error) {
	var it domain.CartItem
	err := r.db.Get(&it, `SELECT id, cart_id, product_id, quantity FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	switch {
	case err == nil:
		it.Quantity += qty
		if _, err := r.db.Exec(`UPDATE cart_items SET quantity = ? WHERE id = ?`, it.Quantity, it.ID); err != nil {
			return domain.CartItem{}, false, err
		}
		return it, false, nil
	case errors.Is(err, sql.ErrNoRows):
		it = domain.CartItem{ID: uuid.NewString(), CartID: cartID, ProductID: productID, Quantity: qty}
		if _, err := r.db.Exec(`INSERT INTO cart_items(id, cart_id, product_id, quantity) VALUES(?, ?, ?, ?)`,
			it.ID, it.CartID, it.ProductID, it.Quantity); err != nil {
			return domain.CartItem{}, false, err
		}
		return it, true, nil
	default:
		return domain.CartItem{}, false, err
	}
}

// GetItem returns a cart item joined with its product's live stock and price.
type CartItemDetail struct {
	ID           string  `db:"id" json:"id"`
	CartID       string  `db:"cart_id" json:"cart_id"`
	ProductID    string  `db:"product_id" json:"product_id"`
	Quantity     int     `db:"quantity" json:"quantity"`
	ProductName  string  `db:"product_name" json:"product_name"`
	ProductPrice float64 `db:"product_price" json:"product_price"`
	ProductStock int     `db:"product_stock" json:"product_stock"`
	Subtotal     float64 `db:"subtotal" json:"subtotal"`
}

func (r *CartRepo) GetItem(itemID string) (CartItemDetail, error) {
	var it CartItemDetail
	err := r.db.Get(&it, `
	  SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
	         p.name AS product_name, p.price AS product_price, p.stock AS product_stock,
	         (ci.quantity * p.price) AS subtotal
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.id = ?
	`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return CartItemDetail{}, fmt.Errorf("%w: cart item %s", domain.ErrNotFound, itemID)
	}
	return it, err
}

func (r *CartRepo) SetItemQuantity(itemID string, qty int) error {
	res, err := r.db.Exec(`UPDATE cart_items SET quantity = ? WHERE id = ?`, qty, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: cart item %s", domain.ErrNotFound, itemID)
	}
	return nil
}

func (r *CartRepo) DeleteItem(itemID string) error {
	res, err := r.db.Exec(`DELETE FROM cart_items WHERE id = ?`, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: cart item %s", domain.ErrNotFound, itemID)
	}
	return nil
}

// Clear removes every item of the user's cart.
func (r *CartRepo) Clear(userID string) (int, error) {
	var cartID string
	if err := r.db.Get(&cartID, `SELECT id FROM carts WHERE user_id = ?`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: cart for user %s", domain.ErrNotFound, userID)
		}
		return 0, err
	}
	res, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type CartView struct {
	Cart        domain.Cart      `json:"cart"`
	UserName    string           `json:"user_name"`
	Items       []CartItemDetail `json:"items"`
	TotalItems  int              `json:"total_items"`
	TotalAmount float64          `json:"total_amount"`
}

// List returns carts with their items and computed totals. Totals use the
// live product price, not a captured one; carts are not priced history.
func (r *CartRepo) List(userIDFilter string) ([]CartView, error) {
	type cartRow struct {
		domain.Cart
		UserName string `db:"user_name"`
	}
	rows := []cartRow{}
	q := `
	  SELECT c.id, c.user_id, c.created_at, u.name AS user_name
	  FROM carts c JOIN users u ON u.id = c.user_id`
	args := []any{}
	if userIDFilter != "" {
		q += ` WHERE c.user_id = ?`
		args = append(args, userIDFilter)
	}
	q += ` ORDER BY c.created_at DESC`
	if err := r.db.Select(&rows, q, args...); err != nil {
		return nil, err
	}

	out := make([]CartView, 0, len(rows))
	for _, c := range rows {
		items := []CartItemDetail{}
		if err := r.db.Select(&items, `
		  SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
		         p.name AS product_name, p.price AS product_price, p.stock AS product_stock,
		         (ci.quantity * p.price) AS subtotal
		  FROM cart_items ci JOIN products p ON p.id = ci.product_id
		  WHERE ci.cart_id = ?
		  ORDER BY ci.id
		`, c.ID); err != nil {
			return nil, err
		}
		total := 0.0
		for _, it := range items {
			total += it.Subtotal
		}
		out = append(out, CartView{Cart: c.Cart, UserName: c.UserName, Items: items, TotalItems: len(items), TotalAmount: total})
	}
	return out, nil
}
