package services

import (
	"fmt"

	"github.com/google/uuid"

	"butik/internal/domain"
	"butik/internal/repos"
)

type OrderService struct {
	Orders *repos.OrderRepo
}

func NewOrderService(orders *repos.OrderRepo) *OrderService {
	return &OrderService{Orders: orders}
}

type OrderItemInput struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type CreateOrderInput struct {
	UserID          string           `json:"user_id"`
	ShippingMethod  string           `json:"shipping_method"`
	ShippingAddress string           `json:"shipping_address"`
	ShippingCost    float64          `json:"shipping_cost"`
	Items           []OrderItemInput `json:"items"`
}

// Create validates the line items, computes the total server-side and
// persists header plus items atomically. Initial status is belum_bayar and
// no payment proof is recorded; stock does not move here.
func (s *OrderService) Create(in CreateOrderInput) (domain.Order, error) {
	if in.UserID == "" || in.ShippingMethod == "" || in.ShippingAddress == "" {
		return domain.Order{}, fmt.Errorf("%w: user_id, shipping_method and shipping_address are required", domain.ErrInvalidInput)
	}
	if in.ShippingCost < 0 {
		return domain.Order{}, fmt.Errorf("%w: shipping_cost must not be negative", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: items must not be empty", domain.ErrInvalidInput)
	}

	total := 0.0
	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 || it.UnitPrice <= 0 {
			return domain.Order{}, fmt.Errorf("%w: each item needs product_id, positive quantity and unit_price", domain.ErrInvalidInput)
		}
		total += it.UnitPrice * float64(it.Quantity)
		items = append(items, domain.OrderItem{
			ID:        uuid.NewString(),
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	total += in.ShippingCost

	o := domain.Order{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Status:          domain.StatusBelumBayar,
		TotalPrice:      total,
		ShippingMethod:  in.ShippingMethod,
		ShippingAddress: in.ShippingAddress,
		ShippingCost:    in.ShippingCost,
	}
	if err := s.Orders.Create(o, items); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *OrderService) Get(orderID string) (domain.Order, []repos.OrderItemDetail, error) {
	return s.Orders.Get(orderID)
}

// AttachProof records payment evidence. The first attachment reconciles
// stock for every line item in one transaction; later attachments replace
// the reference only.
func (s *OrderService) AttachProof(orderID, proofRef string) (repos.AttachProofResult, error) {
	if proofRef == "" {
		return repos.AttachProofResult{}, fmt.Errorf("%w: proof reference is required", domain.ErrInvalidInput)
	}
	return s.Orders.AttachProof(orderID, proofRef)
}

type UpdateOrderInput struct {
	Status          *string  `json:"status"`
	ShippingMethod  *string  `json:"shipping_method"`
	ShippingAddress *string  `json:"shipping_address"`
	ShippingCost    *float64 `json:"shipping_cost"`
}

// Update applies a partial update. Status changes go through the lifecycle
// rules; anything outside the enumerated set is rejected outright.
func (s *OrderService) Update(orderID string, in UpdateOrderInput) (domain.Order, error) {
	patch := repos.Patch{
		ShippingMethod:  in.ShippingMethod,
		ShippingAddress: in.ShippingAddress,
		ShippingCost:    in.ShippingCost,
	}
	if in.ShippingCost != nil && *in.ShippingCost < 0 {
		return domain.Order{}, fmt.Errorf("%w: shipping_cost must not be negative", domain.ErrInvalidInput)
	}
	if in.Status != nil {
		next := domain.Status(*in.Status)
		if !next.Valid() {
			return domain.Order{}, fmt.Errorf("%w: %q is not one of belum_bayar, dikirim, selesai, dibatalkan",
				domain.ErrInvalidStatus, *in.Status)
		}
		current, _, err := s.Orders.Get(orderID)
		if err != nil {
			return domain.Order{}, err
		}
		if next != current.Status && !current.Status.CanTransition(next) {
			return domain.Order{}, fmt.Errorf("%w: cannot move order from %s to %s",
				domain.ErrConflict, current.Status, next)
		}
		patch.Status = &next
	}
	if patch.Empty() {
		return domain.Order{}, fmt.Errorf("%w: at least one field must be provided", domain.ErrNoFields)
	}
	if err := s.Orders.Update(orderID, patch); err != nil {
		return domain.Order{}, err
	}
	o, _, err := s.Orders.Get(orderID)
	return o, err
}

// Delete removes the order and its items. The replaced proof path is
// returned so the caller can unlink the file; stock already reconciled is
// not restored.
func (s *OrderService) Delete(orderID string) (string, error) {
	return s.Orders.Delete(orderID)
}

// List scopes results to the caller unless the caller is an admin, who may
// additionally filter by any user.
func (s *OrderService) List(callerID, callerRole string, f repos.ListFilter) ([]repos.OrderSummary, int, error) {
	if callerRole != "admin" {
		f.UserID = callerID
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, f.Status)
	}
	return s.Orders.List(f)
}

func (s *OrderService) StatusSummary(callerID, callerRole, userIDFilter string) (map[domain.Status]int, error) {
	scope := userIDFilter
	if callerRole != "admin" {
		scope = callerID
	}
	return s.Orders.StatusSummary(scope)
}
