package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"butik/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT id, name, COALESCE(description,'') AS description, price, stock,
	         COALESCE(image,'') AS image, created_at, updated_at
	  FROM products WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	return p, err
}

func (r *ProductRepo) List(limit, offset int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT id, name, COALESCE(description,'') AS description, price, stock,
	         COALESCE(image,'') AS image, created_at, updated_at
	  FROM products
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?
	`, limit, offset)
	return out, err
}

func (r *ProductRepo) Count() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM products`)
	return n, err
}

func (r *ProductRepo) Search(q string, limit, offset int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT id, name, COALESCE(description,'') AS description, price, stock,
	         COALESCE(image,'') AS image, created_at, updated_at
	  FROM products
	  WHERE LOWER(name) LIKE ? OR LOWER(description) LIKE ?
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?
	`, "%"+q+"%", "%"+q+"%", limit, offset)
	return out, err
}

func (r *ProductRepo) Create(p domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id, name, description, price, stock, image)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.Image)
	return err
}

func (r *ProductRepo) Update(p domain.Product) error {
	res, err := r.db.Exec(`
	  UPDATE products
	  SET name = ?, description = ?, price = ?, stock = ?, image = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?
	`, p.Name, p.Description, p.Price, p.Stock, p.Image, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, p.ID)
	}
	return nil
}

// Delete removes a product and its cart references. Order items keep their
// historical unit_price rows.
func (r *ProductRepo) Delete(id string) (string, error) {
	var image string
	if err := r.db.Get(&image, `SELECT COALESCE(image,'') FROM products WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
		}
		return "", err
	}
	tx, err := r.db.Beginx()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM cart_items WHERE product_id = ?`, id); err != nil {
		return "", err
	}
	if _, err := tx.Exec(`DELETE FROM products WHERE id = ?`, id); err != nil {
		return "", err
	}
	return image, tx.Commit()
}

// CheckAvailable reads current stock for a product.
func (r *ProductRepo) CheckAvailable(productID string, qty int) (bool, int, error) {
	var stock int
	err := r.db.Get(&stock, `SELECT stock FROM products WHERE id = ?`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, fmt.Errorf("%w: product %s", domain.ErrNotFound, productID)
	}
	if err != nil {
		return false, 0, err
	}
	return qty <= stock, stock, nil
}

// DecrementStock subtracts qty inside the caller's transaction. The guard
// re-checks stock at write time, so a concurrent decrement on the same row
// cannot push stock below zero.
func (r *ProductRepo) DecrementStock(tx *sqlx.Tx, productID string, qty int) error {
	res, err := tx.Exec(`
	  UPDATE products
	  SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND stock >= ?
	`, qty, productID, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Nothing updated: missing row and shortfall are different error kinds.
	var stock int
	err = tx.Get(&stock, `SELECT stock FROM products WHERE id = ?`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, productID)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: product %s has %d, need %d", domain.ErrInsufficientStock, productID, stock, qty)
}

// DashboardStats powers the admin dashboard.
type DashboardStats struct {
	TotalProducts int     `db:"total_products" json:"total_products"`
	TotalStock    int     `db:"total_stock" json:"total_stock"`
	LowStock      int     `db:"low_stock" json:"low_stock"`
	AvgPrice      float64 `db:"avg_price" json:"avg_price"`
}

func (r *ProductRepo) Stats() (DashboardStats, error) {
	var s DashboardStats
	err := r.db.Get(&s, `
	  SELECT COUNT(*) AS total_products,
	         COALESCE(SUM(stock),0) AS total_stock,
	         COALESCE(SUM(CASE WHEN stock < 5 THEN 1 ELSE 0 END),0) AS low_stock,
	         COALESCE(AVG(price),0) AS avg_price
	  FROM products
	`)
	return s, err
}
