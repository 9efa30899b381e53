package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
)

// InterfaceSupervisorService defines the staff/proctor directory interface
type InterfaceSupervisorService interface {
	SupervisorDirectory
	GetByID(id uint) (*models.Supervisor, error)
	ListByRegion(regionID uint, query models.PaginationQuery) ([]models.Supervisor, models.PaginationResult, error)
	RefreshFromIdentity(id uint) (*models.Supervisor, error)
}

// SupervisorService manages venue staff and proctors
type SupervisorService struct {
	DB       *gorm.DB
	Config   *config.Config
	Identity InterfaceIdentityService
	Redis    InterfaceRedisService
}

// NewSupervisorService creates a new supervisor service
func NewSupervisorService(db *gorm.DB, cfg *config.Config, identity InterfaceIdentityService, redisSvc InterfaceRedisService) InterfaceSupervisorService {
	return &SupervisorService{DB: db, Config: cfg, Identity: identity, Redis: redisSvc}
}

// FindActiveByPinfl looks up an active staff/proctor by national ID.
// Inactive rows are invisible to the engine.
func (s *SupervisorService) FindActiveByPinfl(pinfl string) (*models.Supervisor, error) {
	var sup models.Supervisor
	err := s.DB.Preload("Region").Where("pinfl = ? AND status = ?", pinfl, true).First(&sup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

// AssignmentFor returns the proctor's assignment to the exam for the given
// date and shift, nil when unassigned
func (s *SupervisorService) AssignmentFor(supervisorID, examID uint, date time.Time, shift int) (*models.EventSupervisor, error) {
	var assignment models.EventSupervisor
	day := date.Format("2006-01-02")
	err := s.DB.Where("supervisor_id = ? AND exam_id = ? AND test_date = ? AND shift = ?",
		supervisorID, examID, day, shift).First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// GetByID returns one supervisor with its region
func (s *SupervisorService) GetByID(id uint) (*models.Supervisor, error) {
	var sup models.Supervisor
	if err := s.DB.Preload("Region").First(&sup, id).Error; err != nil {
		return nil, err
	}
	return &sup, nil
}

// ListByRegion returns a paginated slice of a region's staff
func (s *SupervisorService) ListByRegion(regionID uint, query models.PaginationQuery) ([]models.Supervisor, models.PaginationResult, error) {
	if query.PageNum < 1 {
		query.PageNum = 1
	}
	if query.PageSize < 1 || query.PageSize > 200 {
		query.PageSize = 50
	}

	db := s.DB.Model(&models.Supervisor{})
	if regionID != 0 {
		db = db.Where("region_id = ?", regionID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	var list []models.Supervisor
	err := db.Order("last_name, first_name").
		Offset((query.PageNum - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&list).Error
	if err != nil {
		return nil, models.PaginationResult{}, err
	}

	return list, models.NewPaginationResult(int(total), query.PageNum, query.PageSize), nil
}

// RefreshFromIdentity re-verifies a supervisor against the external identity
// service, refreshing name, gender and photo
func (s *SupervisorService) RefreshFromIdentity(id uint) (*models.Supervisor, error) {
	sup, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	person, err := s.Identity.Lookup(sup.Pinfl, sup.PsNumber)
	if err != nil {
		return nil, err
	}
	if person.Status != 1 {
		return nil, fmt.Errorf("identity lookup refused: %s", person.Message)
	}

	updates := map[string]interface{}{
		"last_name":   person.SName,
		"first_name":  person.FName,
		"middle_name": person.MName,
		"gender":      person.Sex,
	}
	if person.Photo != "" {
		updates["image_b64"] = person.Photo
		if s.Redis != nil {
			_ = s.Redis.CacheIdentityPhoto(sup.Pinfl, person.Photo, 24*time.Hour)
		}
	}
	if err := s.DB.Model(sup).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

var _ SupervisorDirectory = (*SupervisorService)(nil)
