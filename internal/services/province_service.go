package services

import (
	"digistore/internal/models"
	"digistore/internal/repositories"
)

// ProvinceService handles business logic for the province reference table.
type ProvinceService struct {
	repo repositories.ProvinceRepository
}

// NewProvinceService creates a new ProvinceService.
func NewProvinceService(repo repositories.ProvinceRepository) *ProvinceService {
	return &ProvinceService{
		repo: repo,
	}
}

// GetProvinces retrieves provinces, optionally only valid ones.
func (s *ProvinceService) GetProvinces(onlyValid bool) ([]models.Province, error) {
	return s.repo.GetAll(onlyValid)
}

// CreateProvince creates a new province.
func (s *ProvinceService) CreateProvince(province *models.Province) error {
	return s.repo.Create(province)
}

// DeleteProvince removes a province. Referencing profiles survive with a
// nulled province reference.
func (s *ProvinceService) DeleteProvince(id string) error {
	return s.repo.Delete(id)
}
