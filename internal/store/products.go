package store

import (
	"context"
	"fmt"

	"clothsy/internal/domain"
)

// AddProduct inserts one product and puts it at the head of the mirror.
func (s *Store) AddProduct(ctx context.Context, d domain.ProductDraft) (domain.Product, error) {
	if err := d.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	d.Category, _ = domain.ParseCategory(string(d.Category))

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	p, err := s.tables.Products.Insert(ctx, d)
	if err != nil {
		return domain.Product{}, remoteErr("insert product", err)
	}

	s.mu.Lock()
	s.products = append([]domain.Product{p.Clone()}, s.products...)
	s.mu.Unlock()

	s.recount(ctx, domain.CounterProducts, s.tables.Products.Count)
	s.notify()
	return p.Clone(), nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	if err := patch.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if patch.Empty() {
		return domain.Product{}, fmt.Errorf("%w: empty product patch", ErrInvalid)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.updateProductLocked(ctx, id, patch)
}

// ToggleProductVisibility flips the visible flag of a mirrored product.
func (s *Store) ToggleProductVisibility(ctx context.Context, id string) (domain.Product, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur, ok := s.Product(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	visible := !cur.Visible
	return s.updateProductLocked(ctx, id, domain.ProductPatch{Visible: &visible})
}

func (s *Store) updateProductLocked(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	if _, ok := s.Product(id); !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	updated, err := s.tables.Products.Update(ctx, id, patch)
	if err != nil {
		return domain.Product{}, remoteErr("update product", err)
	}

	s.mu.Lock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i] = updated.Clone()
			break
		}
	}
	s.mu.Unlock()

	s.notify()
	return updated.Clone(), nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, ok := s.Product(id); !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err := s.tables.Products.Delete(ctx, id); err != nil {
		return remoteErr("delete product", err)
	}

	s.mu.Lock()
	out := s.products[:0:0]
	for _, p := range s.products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	s.products = out
	s.mu.Unlock()

	s.recount(ctx, domain.CounterProducts, s.tables.Products.Count)
	s.notify()
	return nil
}
