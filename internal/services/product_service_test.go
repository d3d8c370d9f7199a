package services_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"digistore/internal/models"
	"digistore/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepo is a testify mock of repositories.ProductRepository.
type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) GetAll(onlyEnabled bool) ([]models.Product, error) {
	args := m.Called(onlyEnabled)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepo) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepo) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepo) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepo) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockProductRepo) ReplaceCategories(product *models.Product, categories []models.Category) error {
	args := m.Called(product, categories)
	return args.Error(0)
}

// MockFileRepo is a testify mock of repositories.FileRepository.
type MockFileRepo struct {
	mock.Mock
}

func (m *MockFileRepo) GetByID(id string) (*models.File, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.File), args.Error(1)
}

func (m *MockFileRepo) GetByProduct(productID string) ([]models.File, error) {
	args := m.Called(productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.File), args.Error(1)
}

func (m *MockFileRepo) Create(file *models.File) error {
	args := m.Called(file)
	return args.Error(0)
}

func (m *MockFileRepo) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepo)
	service := services.NewProductService(mockRepo, nil, nil, "")

	expectedProducts := []models.Product{
		{ID: "prod-1", Title: "Album A", IsEnable: true},
		{ID: "prod-2", Title: "E-book B", IsEnable: true},
	}

	mockRepo.On("GetAll", true).Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts(true)

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepo)
	service := services.NewProductService(mockRepo, nil, nil, "")

	expectedProduct := &models.Product{ID: "prod-1", Title: "Album A", IsEnable: true}

	// Test successful retrieval
	mockRepo.On("GetByID", "prod-1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID("prod-1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)
	mockRepo.AssertExpectations(t)

	// Test product not found
	mockRepo.On("GetByID", "prod-99").Return(nil, fmt.Errorf("product with ID prod-99 not found")).Once()
	product, err = service.GetProductByID("prod-99")
	assert.Error(t, err)
	assert.Nil(t, product)
	assert.Contains(t, err.Error(), "not found")
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProductWithCategories(t *testing.T) {
	mockRepo := new(MockProductRepo)
	mockCategories := new(MockCategoryRepo)
	service := services.NewProductService(mockRepo, mockCategories, nil, "")

	category := &models.Category{ID: "cat-1", Title: "E-books", IsEnable: true}
	mockCategories.On("GetByID", "cat-1").Return(category, nil).Once()
	mockRepo.On("Create", mock.MatchedBy(func(p *models.Product) bool {
		return len(p.Categories) == 1 && p.Categories[0].ID == "cat-1"
	})).Return(nil).Once()

	product := models.Product{Title: "New Book", IsEnable: true}
	err := service.CreateProduct(&product, []string{"cat-1"})
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockCategories.AssertExpectations(t)

	// Unknown category rejects the create before it reaches the repository.
	mockCategories.On("GetByID", "cat-99").Return(nil, fmt.Errorf("category with ID cat-99 not found")).Once()
	err = service.CreateProduct(&models.Product{Title: "Bad"}, []string{"cat-99"})
	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Create", mock.MatchedBy(func(p *models.Product) bool {
		return p.Title == "Bad"
	}))
}

func TestProductService_UpdateProductReplacesCategories(t *testing.T) {
	mockRepo := new(MockProductRepo)
	mockCategories := new(MockCategoryRepo)
	service := services.NewProductService(mockRepo, mockCategories, nil, "")

	product := &models.Product{ID: "prod-1", Title: "Album A", IsEnable: true}
	category := &models.Category{ID: "cat-2", Title: "Music", IsEnable: true}

	mockRepo.On("Update", product).Return(nil).Once()
	mockCategories.On("GetByID", "cat-2").Return(category, nil).Once()
	mockRepo.On("ReplaceCategories", product, mock.AnythingOfType("[]models.Category")).Return(nil).Once()

	err := service.UpdateProduct(product, []string{"cat-2"})
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Nil category IDs leave the binding untouched.
	mockRepo.On("Update", product).Return(nil).Once()
	err = service.UpdateProduct(product, nil)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProductRemovesPayloads(t *testing.T) {
	mediaRoot := t.TempDir()
	payload := filepath.Join(mediaRoot, "files", "2024", "05", "17", "abc_book.pdf")
	assert.NoError(t, os.MkdirAll(filepath.Dir(payload), 0o755))
	assert.NoError(t, os.WriteFile(payload, []byte("payload"), 0o644))

	mockRepo := new(MockProductRepo)
	mockFiles := new(MockFileRepo)
	service := services.NewProductService(mockRepo, nil, mockFiles, mediaRoot)

	mockFiles.On("GetByProduct", "prod-1").Return([]models.File{
		{ID: "file-1", ProductID: "prod-1", Path: filepath.Join("files", "2024", "05", "17", "abc_book.pdf")},
	}, nil).Once()
	mockRepo.On("Delete", "prod-1").Return(nil).Once()

	err := service.DeleteProduct("prod-1")
	assert.NoError(t, err)
	_, statErr := os.Stat(payload)
	assert.True(t, os.IsNotExist(statErr))
	mockRepo.AssertExpectations(t)
	mockFiles.AssertExpectations(t)
}
