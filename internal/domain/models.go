package domain

type User struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`
	Hash      string `db:"password_hash" json:"-"`
	Role      string `db:"role" json:"role"` // admin | user
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

type Product struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	Price       float64 `db:"price" json:"price"`
	Stock       int     `db:"stock" json:"stock"`
	Image       string  `db:"image" json:"image"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
	UpdatedAt   string  `db:"updated_at" json:"updated_at"`
}

type Cart struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

type CartItem struct {
	ID        string `db:"id" json:"id"`
	CartID    string `db:"cart_id" json:"cart_id"`
	ProductID string `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

type Order struct {
	ID              string  `db:"id" json:"id"`
	UserID          string  `db:"user_id" json:"user_id"`
	Status          Status  `db:"status" json:"status"`
	TotalPrice      float64 `db:"total_price" json:"total_price"`
	ShippingMethod  string  `db:"shipping_method" json:"shipping_method"`
	ShippingAddress string  `db:"shipping_address" json:"shipping_address"`
	ShippingCost    float64 `db:"shipping_cost" json:"shipping_cost"`
	TransferProof   string  `db:"transfer_proof" json:"transfer_proof,omitempty"`
	CreatedAt       string  `db:"created_at" json:"created_at"`
	UpdatedAt       string  `db:"updated_at" json:"updated_at"`
}

// Unit price is captured at order time and never re-read from products,
// so deleting a product cannot rewrite order history.
type OrderItem struct {
	ID        string  `db:"id" json:"id"`
	OrderID   string  `db:"order_id" json:"order_id"`
	ProductID string  `db:"product_id" json:"product_id"`
	Quantity  int     `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
}
