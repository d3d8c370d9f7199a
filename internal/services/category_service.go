package services

import (
	"errors"
	"fmt"

	"digistore/internal/models"
	"digistore/internal/repositories"
)

// ErrCategoryCycle is returned when a parent assignment would make a category
// its own ancestor.
var ErrCategoryCycle = errors.New("category cannot be its own ancestor")

// maxTreeDepth bounds the ancestor walk so a pre-existing malformed chain
// cannot loop the check forever.
const maxTreeDepth = 100

// CategoryService handles business logic for the category tree.
type CategoryService struct {
	repo repositories.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{
		repo: repo,
	}
}

// GetCategories retrieves categories, optionally only roots or only enabled.
func (s *CategoryService) GetCategories(rootsOnly, onlyEnabled bool) ([]models.Category, error) {
	if rootsOnly {
		return s.repo.GetRoots(onlyEnabled)
	}
	return s.repo.GetAll(onlyEnabled)
}

// GetCategoryByID retrieves a single category with its children.
func (s *CategoryService) GetCategoryByID(id string) (*models.Category, error) {
	return s.repo.GetByID(id)
}

// CreateCategory creates a new category after checking the parent exists.
func (s *CategoryService) CreateCategory(category *models.Category) error {
	if category.ParentID != nil {
		if _, err := s.repo.GetByID(*category.ParentID); err != nil {
			return fmt.Errorf("parent category: %w", err)
		}
	}
	return s.repo.Create(category)
}

// UpdateCategory updates a category. Parent reassignment is rejected when it
// would introduce a cycle.
func (s *CategoryService) UpdateCategory(category *models.Category) error {
	if category.ParentID != nil {
		if err := s.checkAcyclic(category.ID, *category.ParentID); err != nil {
			return err
		}
	}
	return s.repo.Update(category)
}

// DeleteCategory deletes a category and its subtree.
func (s *CategoryService) DeleteCategory(id string) error {
	return s.repo.Delete(id)
}

// checkAcyclic walks up from the proposed parent and fails if it reaches the
// category being updated.
func (s *CategoryService) checkAcyclic(categoryID, parentID string) error {
	current := parentID
	for depth := 0; depth < maxTreeDepth; depth++ {
		if current == categoryID {
			return ErrCategoryCycle
		}
		ancestor, err := s.repo.GetByID(current)
		if err != nil {
			return fmt.Errorf("parent category: %w", err)
		}
		if ancestor.ParentID == nil {
			return nil
		}
		current = *ancestor.ParentID
	}
	return ErrCategoryCycle
}
