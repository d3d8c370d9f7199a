package repositories

import "digistore/internal/models"

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	GetAll(onlyEnabled bool) ([]models.Category, error)
	GetRoots(onlyEnabled bool) ([]models.Category, error)
	// GetByID loads the category together with its direct children.
	GetByID(id string) (*models.Category, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
	Delete(id string) error
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(onlyEnabled bool) ([]models.Product, error)
	// GetByID loads the product together with its categories and files.
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	// Delete removes the product, its category links and its file rows.
	Delete(id string) error
	// ReplaceCategories rebinds the many-to-many category set.
	ReplaceCategories(product *models.Product, categories []models.Category) error
}

// FileRepository defines the interface for product file data access.
type FileRepository interface {
	GetByID(id string) (*models.File, error)
	GetByProduct(productID string) ([]models.File, error)
	Create(file *models.File) error
	Delete(id string) error
}

// ProvinceRepository defines the interface for province data access.
type ProvinceRepository interface {
	GetAll(onlyValid bool) ([]models.Province, error)
	GetByID(id string) (*models.Province, error)
	Create(province *models.Province) error
	// Delete removes the province after nulling every profile reference to it.
	Delete(id string) error
}
