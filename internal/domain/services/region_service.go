package services

import (
	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/domain/models"
)

// InterfaceRegionService defines the region/building catalogue interface
// used by the monitor UI's cascading selectors
type InterfaceRegionService interface {
	ListRegions() ([]models.Region, error)
	ListZones(regionID uint) ([]models.Zone, error)
}

// RegionService serves the venue catalogue
type RegionService struct {
	DB *gorm.DB
}

// NewRegionService creates a new region service
func NewRegionService(db *gorm.DB) InterfaceRegionService {
	return &RegionService{DB: db}
}

// ListRegions returns active regions ordered by official number
func (s *RegionService) ListRegions() ([]models.Region, error) {
	var regions []models.Region
	err := s.DB.Where("status = ?", true).Order("number").Find(&regions).Error
	return regions, err
}

// ListZones returns the buildings of a region
func (s *RegionService) ListZones(regionID uint) ([]models.Zone, error) {
	var zones []models.Zone
	err := s.DB.Where("region_id = ?", regionID).Order("number").Find(&zones).Error
	return zones, err
}
