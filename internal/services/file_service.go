package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"digistore/internal/models"
	"digistore/internal/repositories"

	"github.com/google/uuid"
)

// FileService handles business logic for product file payloads.
type FileService struct {
	fileRepo    repositories.FileRepository
	productRepo repositories.ProductRepository
	mediaRoot   string
	now         func() time.Time
}

// NewFileService creates a new FileService.
func NewFileService(fileRepo repositories.FileRepository, productRepo repositories.ProductRepository, mediaRoot string, now func() time.Time) *FileService {
	if now == nil {
		now = time.Now
	}
	return &FileService{
		fileRepo:    fileRepo,
		productRepo: productRepo,
		mediaRoot:   mediaRoot,
		now:         now,
	}
}

// StoragePath returns the media-root-relative path a new upload should be
// saved under: files/YYYY/MM/DD/<uuid>_<name>.
func (s *FileService) StoragePath(originalName string) string {
	name := filepath.Base(originalName)
	day := s.now().Format("2006/01/02")
	return filepath.Join("files", day, uuid.New().String()+"_"+name)
}

// AbsolutePath resolves a stored relative path against the media root.
func (s *FileService) AbsolutePath(relative string) string {
	return filepath.Join(s.mediaRoot, relative)
}

// AddFile records an uploaded payload for a product.
func (s *FileService) AddFile(productID, title, path string) (*models.File, error) {
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	file := &models.File{
		ProductID: productID,
		Title:     title,
		IsEnable:  true,
		Path:      path,
	}
	if err := s.fileRepo.Create(file); err != nil {
		return nil, err
	}
	return file, nil
}

// GetFilesByProduct retrieves all files belonging to a product.
func (s *FileService) GetFilesByProduct(productID string) ([]models.File, error) {
	return s.fileRepo.GetByProduct(productID)
}

// DeleteFile removes a file row and best-effort removes its stored payload.
func (s *FileService) DeleteFile(id string) error {
	file, err := s.fileRepo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.fileRepo.Delete(id); err != nil {
		return err
	}
	if file.Path != "" {
		if rmErr := os.Remove(filepath.Join(s.mediaRoot, file.Path)); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("Warning: Failed to remove payload %s of deleted file %s: %v", file.Path, id, rmErr)
		}
	}
	return nil
}
