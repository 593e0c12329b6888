package services

import (
	"fmt"

	"github.com/google/uuid"

	"butik/internal/domain"
	"butik/internal/repos"
)

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image"`
}

func (in ProductInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func (s *CatalogService) Create(in ProductInput) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Image:       in.Image,
	}
	if err := s.Prods.Create(p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Update overwrites the product; empty Image keeps the stored one.
func (s *CatalogService) Update(id string, in ProductInput) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}
	p, err := s.Prods.Get(id)
	if err != nil {
		return domain.Product{}, err
	}
	p.Name, p.Description, p.Price, p.Stock = in.Name, in.Description, in.Price, in.Stock
	if in.Image != "" {
		p.Image = in.Image
	}
	if err := s.Prods.Update(p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Delete removes the product and returns its image path for cleanup.
func (s *CatalogService) Delete(id string) (string, error) {
	return s.Prods.Delete(id)
}

func (s *CatalogService) Get(id string) (domain.Product, error) {
	return s.Prods.Get(id)
}

func (s *CatalogService) List(page, pageSize int) ([]domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	total, err := s.Prods.Count()
	if err != nil {
		return nil, 0, err
	}
	out, err := s.Prods.List(pageSize, (page-1)*pageSize)
	return out, total, err
}

func (s *CatalogService) Search(q string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return s.Prods.Search(q, pageSize, (page-1)*pageSize)
}

type Availability struct {
	Available bool `json:"available"`
	Stock     int  `json:"stock"`
}

func (s *CatalogService) CheckAvailable(productID string, qty int) (Availability, error) {
	if qty <= 0 {
		return Availability{}, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	ok, stock, err := s.Prods.CheckAvailable(productID, qty)
	if err != nil {
		return Availability{}, err
	}
	return Availability{Available: ok, Stock: stock}, nil
}

func (s *CatalogService) Stats() (repos.DashboardStats, error) {
	return s.Prods.Stats()
}
