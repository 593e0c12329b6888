package repos

import (
	"github.com/jmoiron/sqlx"
)

// ReportRepo is a read-only projection over finalized orders. Revenue counts
// selesai orders only, net of shipping; cancelled and pending orders
// contribute zero.
type ReportRepo struct{ db *sqlx.DB }

func NewReportRepo(db *sqlx.DB) *ReportRepo { return &ReportRepo{db: db} }

type SalesSummary struct {
	TotalOrders     int     `db:"total_orders" json:"total_orders"`
	CompletedOrders int     `db:"completed_orders" json:"completed_orders"`
	CancelledOrders int     `db:"cancelled_orders" json:"cancelled_orders"`
	TotalRevenue    float64 `db:"total_revenue" json:"total_revenue"`
	AvgOrderValue   float64 `db:"avg_order_value" json:"avg_order_value"`
	UniqueCustomers int     `db:"unique_customers" json:"unique_customers"`
}

type SalesBucket struct {
	Period string `json:"period"`
	SalesSummary
}

type TopProduct struct {
	ProductID  string  `db:"product_id" json:"product_id"`
	Name       string  `db:"name" json:"name"`
	TotalSold  int     `db:"total_sold" json:"total_sold"`
	OrderCount int     `db:"order_count" json:"order_count"`
	Revenue    float64 `db:"revenue" json:"revenue"`
}

type TopCustomer struct {
	UserID      string  `db:"user_id" json:"user_id"`
	Name        string  `db:"name" json:"name"`
	Email       string  `db:"email" json:"email"`
	TotalOrders int     `db:"total_orders" json:"total_orders"`
	TotalSpent  float64 `db:"total_spent" json:"total_spent"`
}

const summaryCols = `
  COUNT(o.id) AS total_orders,
  COALESCE(SUM(CASE WHEN o.status='selesai' THEN 1 ELSE 0 END),0) AS completed_orders,
  COALESCE(SUM(CASE WHEN o.status='dibatalkan' THEN 1 ELSE 0 END),0) AS cancelled_orders,
  COALESCE(SUM(CASE WHEN o.status='selesai' THEN (o.total_price - o.shipping_cost) ELSE 0 END),0) AS total_revenue,
  COALESCE(AVG(CASE WHEN o.status='selesai' THEN (o.total_price - o.shipping_cost) END),0) AS avg_order_value,
  COUNT(DISTINCT CASE WHEN o.status='selesai' THEN o.user_id END) AS unique_customers`

func (r *ReportRepo) scope(userID string) string {
	where := `DATE(o.created_at) BETWEEN ? AND ?`
	if userID != "" {
		where += ` AND o.user_id = ?`
	}
	return where
}

func (r *ReportRepo) args(start, end, userID string) []any {
	a := []any{start, end}
	if userID != "" {
		a = append(a, userID)
	}
	return a
}

// Summary aggregates the whole date range. userID scopes to one caller's
// orders; empty means all orders.
func (r *ReportRepo) Summary(start, end, userID string) (SalesSummary, error) {
	where := r.scope(userID)
	var s SalesSummary
	err := r.db.Get(&s, `SELECT `+summaryCols+` FROM orders o WHERE `+where, r.args(start, end, userID)...)
	return s, err
}

// Buckets groups the range by sqlite strftime layout: "%Y-%m-%d" for daily,
// "%Y-W%W" for weekly, "%Y-%m" for monthly.
func (r *ReportRepo) Buckets(start, end, userID, layout string, limit int) ([]SalesBucket, error) {
	where := r.scope(userID)
	type row struct {
		Period string `db:"period"`
		SalesSummary
	}
	rows := []row{}
	err := r.db.Select(&rows, `
	  SELECT strftime('`+layout+`', o.created_at) AS period, `+summaryCols+`
	  FROM orders o
	  WHERE `+where+`
	  GROUP BY period
	  ORDER BY period DESC
	  LIMIT ?`, append(r.args(start, end, userID), limit)...)
	if err != nil {
		return nil, err
	}
	out := make([]SalesBucket, 0, len(rows))
	for _, x := range rows {
		out = append(out, SalesBucket{Period: x.Period, SalesSummary: x.SalesSummary})
	}
	return out, nil
}

func (r *ReportRepo) TopProducts(start, end, userID string, limit int) ([]TopProduct, error) {
	where := r.scope(userID)
	out := []TopProduct{}
	err := r.db.Select(&out, `
	  SELECT oi.product_id, COALESCE(p.name,'') AS name,
	         SUM(oi.quantity) AS total_sold,
	         COUNT(DISTINCT o.id) AS order_count,
	         SUM(oi.quantity * oi.unit_price) AS revenue
	  FROM order_items oi
	  JOIN orders o ON o.id = oi.order_id
	  LEFT JOIN products p ON p.id = oi.product_id
	  WHERE o.status = 'selesai' AND `+where+`
	  GROUP BY oi.product_id, p.name
	  ORDER BY total_sold DESC
	  LIMIT ?`, append(r.args(start, end, userID), limit)...)
	return out, err
}

func (r *ReportRepo) TopCustomers(start, end string, limit int) ([]TopCustomer, error) {
	out := []TopCustomer{}
	err := r.db.Select(&out, `
	  SELECT o.user_id, COALESCE(u.name,'') AS name, COALESCE(u.email,'') AS email,
	         COUNT(o.id) AS total_orders,
	         SUM(o.total_price - o.shipping_cost) AS total_spent
	  FROM orders o
	  LEFT JOIN users u ON u.id = o.user_id
	  WHERE o.status = 'selesai' AND DATE(o.created_at) BETWEEN ? AND ?
	  GROUP BY o.user_id, u.name, u.email
	  ORDER BY total_spent DESC
	  LIMIT ?`, start, end, limit)
	return out, err
}
