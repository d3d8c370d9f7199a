package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"digistore/internal/models"
	"digistore/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
	fileRepo     repositories.FileRepository
	mediaRoot    string
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo repositories.ProductRepository, categoryRepo repositories.CategoryRepository, fileRepo repositories.FileRepository, mediaRoot string) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		fileRepo:     fileRepo,
		mediaRoot:    mediaRoot,
	}
}

// GetAllProducts retrieves all products, optionally only enabled ones.
func (s *ProductService) GetAllProducts(onlyEnabled bool) ([]models.Product, error) {
	return s.productRepo.GetAll(onlyEnabled)
}

// GetProductByID retrieves a single product with its categories and files.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.productRepo.GetByID(id)
}

// CreateProduct creates a new product, bound to the given categories.
func (s *ProductService) CreateProduct(product *models.Product, categoryIDs []string) error {
	categories, err := s.resolveCategories(categoryIDs)
	if err != nil {
		return err
	}
	product.Categories = categories
	return s.productRepo.Create(product)
}

// UpdateProduct updates a product. A non-nil categoryIDs replaces the
// category set; nil leaves it untouched.
func (s *ProductService) UpdateProduct(product *models.Product, categoryIDs []string) error {
	if err := s.productRepo.Update(product); err != nil {
		return err
	}
	if categoryIDs == nil {
		return nil
	}
	categories, err := s.resolveCategories(categoryIDs)
	if err != nil {
		return err
	}
	return s.productRepo.ReplaceCategories(product, categories)
}

// DeleteProduct deletes a product, its file rows and their stored payloads.
// Payload removal is best-effort; the database rows are authoritative.
func (s *ProductService) DeleteProduct(id string) error {
	files, err := s.fileRepo.GetByProduct(id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(id); err != nil {
		return err
	}
	for _, file := range files {
		if file.Path == "" {
			continue
		}
		if rmErr := os.Remove(filepath.Join(s.mediaRoot, file.Path)); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("Warning: Failed to remove payload %s of deleted product %s: %v", file.Path, id, rmErr)
		}
	}
	return nil
}

func (s *ProductService) resolveCategories(categoryIDs []string) ([]models.Category, error) {
	categories := make([]models.Category, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		category, err := s.categoryRepo.GetByID(categoryID)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", categoryID, err)
		}
		categories = append(categories, *category)
	}
	return categories, nil
}
