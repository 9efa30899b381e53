package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
)

// InterfaceStudentService defines the student roster interface
type InterfaceStudentService interface {
	StudentDirectory
	ListForZone(examID, zoneID uint) ([]models.Student, error)
	List(examID uint, zoneID uint, query models.PaginationQuery) ([]models.Student, models.PaginationResult, error)
	GetPsData(studentID uint) (*models.StudentPsData, error)
}

// StudentService is the roster directory used by the engine and the
// provisioning pushes
type StudentService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewStudentService creates a new student service
func NewStudentService(db *gorm.DB, cfg *config.Config) InterfaceStudentService {
	return &StudentService{DB: db, Config: cfg}
}

// FindForEvent looks up the student by the exact (exam, pinfl, date, shift)
// key. Returns nil when no row matches.
func (s *StudentService) FindForEvent(examID uint, pinfl string, date time.Time, shift int) (*models.Student, error) {
	var student models.Student
	day := date.Format("2006-01-02")
	err := s.DB.Where("exam_id = ? AND pinfl = ? AND exam_date = ? AND shift = ?",
		examID, pinfl, day, shift).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// FindAny looks up any record for (exam, pinfl), used to distinguish "not in
// this test" from "not in the current shift"
func (s *StudentService) FindAny(examID uint, pinfl string) (*models.Student, error) {
	var student models.Student
	err := s.DB.Where("exam_id = ? AND pinfl = ?", examID, pinfl).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// IsBlacklisted checks the standalone national-ID blacklist
func (s *StudentService) IsBlacklisted(pinfl string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.StudentBlacklist{}).Where("pinfl = ?", pinfl).Count(&count).Error
	return count > 0, err
}

// MarkEntered flags a student as inside the venue
func (s *StudentService) MarkEntered(studentID uint) error {
	return s.DB.Model(&models.Student{}).Where("id = ?", studentID).
		Update("is_entered", true).Error
}

// ListForZone returns the roster bound to one building for an exam, the
// population a door push targets
func (s *StudentService) ListForZone(examID, zoneID uint) ([]models.Student, error) {
	var students []models.Student
	err := s.DB.Where("exam_id = ? AND zone_id = ?", examID, zoneID).
		Order("pinfl").Find(&students).Error
	return students, err
}

// List returns a paginated roster slice for the admin UI
func (s *StudentService) List(examID uint, zoneID uint, query models.PaginationQuery) ([]models.Student, models.PaginationResult, error) {
	if query.PageNum < 1 {
		query.PageNum = 1
	}
	if query.PageSize < 1 || query.PageSize > 200 {
		query.PageSize = 50
	}

	db := s.DB.Model(&models.Student{}).Where("exam_id = ?", examID)
	if zoneID != 0 {
		db = db.Where("zone_id = ?", zoneID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	order := "id"
	if query.Desc {
		order = "id DESC"
	}
	var students []models.Student
	err := db.Order(order).
		Offset((query.PageNum - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&students).Error
	if err != nil {
		return nil, models.PaginationResult{}, err
	}

	return students, models.NewPaginationResult(int(total), query.PageNum, query.PageSize), nil
}

// GetPsData returns the passport row with the face photo
func (s *StudentService) GetPsData(studentID uint) (*models.StudentPsData, error) {
	var ps models.StudentPsData
	err := s.DB.Where("student_id = ?", studentID).First(&ps).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

var _ StudentDirectory = (*StudentService)(nil)
