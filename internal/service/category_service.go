package service

import (
	"context"
	"fmt"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	stores *Registry
}

func NewCategoryService(stores *Registry) *CategoryService {
	return &CategoryService{stores: stores}
}

func (s *CategoryService) List(ctx context.Context, origin string) ([]string, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return nil, err
	}
	return st.Categories(), nil
}

func (s *CategoryService) Add(ctx context.Context, origin, name string) error {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return err
	}
	if err := st.AddCategory(ctx, name); err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	return nil
}

// Rename replaces the category at index. Tasks keep the old name.
func (s *CategoryService) Rename(ctx context.Context, origin string, index int, name string) error {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return err
	}
	if err := st.EditCategory(ctx, index, name); err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	return nil
}

// Delete removes the category at index and returns its name.
func (s *CategoryService) Delete(ctx context.Context, origin string, index int) (string, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return "", err
	}
	name, err := st.DeleteCategory(ctx, index)
	if err != nil {
		return "", fmt.Errorf("delete category: %w", err)
	}
	return name, nil
}
