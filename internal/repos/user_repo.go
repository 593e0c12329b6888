package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"butik/internal/domain"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, name, email, COALESCE(phone,'') AS phone, password_hash, role, created_at, updated_at`

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, email)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List() ([]domain.User, error) {
	out := []domain.User{}
	err := r.db.Select(&out, `SELECT `+userCols+` FROM users ORDER BY created_at DESC`)
	return out, err
}

func (r *UserRepo) Create(u domain.User) error {
	_, err := r.db.Exec(`
	  INSERT INTO users(id, name, email, phone, password_hash, role)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Email, u.Phone, u.Hash, u.Role)
	return err
}

func (r *UserRepo) Update(u domain.User) error {
	res, err := r.db.Exec(`
	  UPDATE users SET name=?, email=?, phone=?, updated_at=CURRENT_TIMESTAMP WHERE id=?
	`, u.Name, u.Email, u.Phone, u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, u.ID)
	}
	return nil
}

// DeleteCascade removes the user together with everything the user owns:
// cart (items cascade), orders and their items. One transaction; stock is
// never reversed by account deletion.
func (r *UserRepo) DeleteCascade(userID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var orderIDs []string
	if err := tx.Select(&orderIDs, `SELECT id FROM orders WHERE user_id=?`, userID); err != nil {
		return err
	}
	if len(orderIDs) > 0 {
		query, args, err := sqlx.In(`DELETE FROM order_items WHERE order_id IN (?)`, orderIDs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM orders WHERE user_id=?`, userID); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM carts WHERE user_id=?`, userID); err != nil {
		return err
	}

	res, err := tx.Exec(`DELETE FROM users WHERE id=?`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return tx.Commit()
}
