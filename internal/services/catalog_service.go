package services

import (
	"context"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]repos.CategoryRow, error) {
	rows, err := s.Cats.List(ctx)
	if err != nil {
		return nil, domain.Persistence(err, "could not list categories")
	}
	return rows, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, category string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 24
	}
	offset := (page - 1) * pageSize
	out, err := s.Prods.List(ctx, category, pageSize, offset)
	if err != nil {
		return nil, domain.Persistence(err, "could not list products")
	}
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.Product{}, productErr(err)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Product) error {
	if p.Quantity < 0 {
		return domain.Errorf(domain.KindInvalidQuantity, "stock cannot be negative")
	}
	if _, err := s.Prods.Get(ctx, p.ID); err == nil {
		return domain.Errorf(domain.KindInvalidInput, "product %s already exists", p.ID)
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		return domain.Persistence(err, "could not create product")
	}
	return nil
}

// UpdateProduct overwrites the product, stock included. Units already held by
// carts are not part of quantity and stay reserved.
func (s *CatalogService) UpdateProduct(ctx context.Context, p domain.Product) error {
	if p.Quantity < 0 {
		return domain.Errorf(domain.KindInvalidQuantity, "stock cannot be negative")
	}
	if err := s.Prods.Update(ctx, p); err != nil {
		return productErr(err)
	}
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.Prods.Delete(ctx, id); err != nil {
		return productErr(err)
	}
	return nil
}

func productErr(err error) error {
	if repos.IsNoRows(err) {
		return &domain.Error{Kind: domain.KindNotFound, Message: "product not found", Err: err}
	}
	return domain.Persistence(err, "catalog unavailable")
}
