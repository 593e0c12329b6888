package services

import (
	"fmt"

	"butik/internal/domain"
	"butik/internal/repos"
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

type AddItemResult struct {
	CartID   string          `json:"cart_id"`
	Item     domain.CartItem `json:"item"`
	Created  bool            `json:"created"`
	Product  string          `json:"product_name"`
	UnitCost float64         `json:"product_price"`
}

// AddItem upserts a cart line. Stock is a ceiling at add time, never a
// reservation: the combined quantity may not exceed what is on hand now.
func (s *CartService) AddItem(userID, productID string, qty int) (AddItemResult, error) {
	if qty <= 0 {
		return AddItemResult{}, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		return AddItemResult{}, err
	}
	cartID, err := s.Carts.EnsureCart(userID)
	if err != nil {
		return AddItemResult{}, err
	}
	existing, err := s.Carts.ItemQuantity(cartID, productID)
	if err != nil {
		return AddItemResult{}, err
	}
	if existing+qty > p.Stock {
		return AddItemResult{}, fmt.Errorf("%w: in cart %d, requested %d, available %d",
			domain.ErrInsufficientStock, existing, qty, p.Stock)
	}
	it, created, err := s.Carts.UpsertItem(cartID, productID, qty)
	if err != nil {
		return AddItemResult{}, err
	}
	return AddItemResult{CartID: cartID, Item: it, Created: created, Product: p.Name, UnitCost: p.Price}, nil
}

// UpdateItem overwrites the quantity of one cart line.
func (s *CartService) UpdateItem(itemID string, qty int) (repos.CartItemDetail, error) {
	if qty <= 0 {
		return repos.CartItemDetail{}, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	it, err := s.Carts.GetItem(itemID)
	if err != nil {
		return repos.CartItemDetail{}, err
	}
	if qty > it.ProductStock {
		return repos.CartItemDetail{}, fmt.Errorf("%w: requested %d, available %d",
			domain.ErrInsufficientStock, qty, it.ProductStock)
	}
	if err := s.Carts.SetItemQuantity(itemID, qty); err != nil {
		return repos.CartItemDetail{}, err
	}
	it.Quantity = qty
	it.Subtotal = float64(qty) * it.ProductPrice
	return it, nil
}

func (s *CartService) RemoveItem(itemID string) error {
	return s.Carts.DeleteItem(itemID)
}

func (s *CartService) Clear(userID string) (int, error) {
	return s.Carts.Clear(userID)
}

func (s *CartService) List(userIDFilter string) ([]repos.CartView, error) {
	return s.Carts.List(userIDFilter)
}
