package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/domain/models"
)

// InterfaceScheduleService defines the schedule resolver interface
type InterfaceScheduleService interface {
	ShiftResolver
	ListShifts(examID uint) ([]models.ExamShift, error)
}

// ScheduleService resolves which shift window is active for an exam at a
// given moment
type ScheduleService struct {
	DB *gorm.DB
}

// NewScheduleService creates a new schedule service
func NewScheduleService(db *gorm.DB) InterfaceScheduleService {
	return &ScheduleService{DB: db}
}

// ResolveActiveShift enumerates the exam's shifts ordered by shift number
// and returns the first whose [access, expire] window contains t's time of
// day, bounds inclusive. Returns nil when no window matches.
func (s *ScheduleService) ResolveActiveShift(examID uint, t time.Time) (*ActiveShift, error) {
	shifts, err := s.ListShifts(examID)
	if err != nil {
		return nil, err
	}

	for i := range shifts {
		if shifts[i].Contains(t) {
			number := 0
			if shifts[i].Shift != nil {
				number = shifts[i].Shift.Number
			}
			return &ActiveShift{Window: shifts[i], Number: number}, nil
		}
	}
	return nil, nil
}

// ListShifts returns the exam's shift windows ordered by shift number
func (s *ScheduleService) ListShifts(examID uint) ([]models.ExamShift, error) {
	var shifts []models.ExamShift
	err := s.DB.Preload("Shift").
		Joins("JOIN shifts ON shifts.id = exam_shifts.shift_id").
		Where("exam_shifts.exam_id = ?", examID).
		Order("shifts.number").
		Find(&shifts).Error
	return shifts, err
}
