package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
)

// InterfaceExamService defines the exam management interface
type InterfaceExamService interface {
	GetByID(id uint) (*models.Exam, error)
	ListActive() ([]models.Exam, error)
	ListReady() ([]models.Exam, error)
	Transition(id uint, next models.ExamState) (*models.Exam, error)
	Bindings(examID uint) ([]models.ExamTurnstile, error)
	AdvanceAfterPush(examID uint) error
	RequirePushable(examID uint) (*models.Exam, error)
}

// ExamService manages exam sessions and their lifecycle state
type ExamService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewExamService creates a new exam service
func NewExamService(db *gorm.DB, cfg *config.Config) InterfaceExamService {
	return &ExamService{DB: db, Config: cfg}
}

// GetByID returns one exam with its test and shifts
func (s *ExamService) GetByID(id uint) (*models.Exam, error) {
	var exam models.Exam
	err := s.DB.Preload("Test").Preload("ExamShifts.Shift").First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// ListActive returns all exams that are not finished
func (s *ExamService) ListActive() ([]models.Exam, error) {
	var exams []models.Exam
	err := s.DB.Preload("Test").Where("is_finished = ?", false).
		Order("start_date DESC").Find(&exams).Error
	return exams, err
}

// ListReady returns exams ready for the monitor screens
func (s *ExamService) ListReady() ([]models.Exam, error) {
	var exams []models.Exam
	err := s.DB.Preload("Test").
		Where("state = ? AND is_finished = ?", models.ExamStateReady, false).
		Order("start_date DESC").Find(&exams).Error
	return exams, err
}

// Transition advances an exam's state, forward only
func (s *ExamService) Transition(id uint, next models.ExamState) (*models.Exam, error) {
	var exam models.Exam
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&exam, id).Error; err != nil {
			return err
		}
		if err := exam.Transition(next); err != nil {
			return err
		}
		return tx.Model(&exam).Updates(map[string]interface{}{
			"state":       exam.State,
			"is_finished": exam.IsFinished,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// Bindings returns the exam's door bindings with turnstiles
func (s *ExamService) Bindings(examID uint) ([]models.ExamTurnstile, error) {
	var bindings []models.ExamTurnstile
	err := s.DB.Preload("Turnstile").Preload("Turnstile.Zone").
		Where("exam_id = ?", examID).Find(&bindings).Error
	return bindings, err
}

// AdvanceAfterPush moves the exam forward after a completed provisioning
// run: data_loaded becomes data_pushed, and data_pushed becomes ready once
// every binding is Ready.
func (s *ExamService) AdvanceAfterPush(examID uint) error {
	exam, err := s.GetByID(examID)
	if err != nil {
		return err
	}

	if exam.State == models.ExamStateDataLoaded {
		if _, err := s.Transition(examID, models.ExamStateDataPushed); err != nil {
			return err
		}
		exam.State = models.ExamStateDataPushed
	}

	if exam.State == models.ExamStateDataPushed {
		var notReady int64
		err := s.DB.Model(&models.ExamTurnstile{}).
			Where("exam_id = ? AND ready = ?", examID, false).
			Count(&notReady).Error
		if err != nil {
			return err
		}
		if notReady == 0 {
			if _, err := s.Transition(examID, models.ExamStateReady); err != nil {
				return err
			}
		}
	}
	return nil
}

// RequirePushable checks the exam is in a state where provisioning is
// allowed
func (s *ExamService) RequirePushable(examID uint) (*models.Exam, error) {
	exam, err := s.GetByID(examID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("exam %d not found", examID)
	}
	if err != nil {
		return nil, err
	}
	switch exam.State {
	case models.ExamStateDataLoaded, models.ExamStateDataPushed, models.ExamStateReady:
		return exam, nil
	default:
		return nil, fmt.Errorf("exam %d is %s, roster not loaded or already finished", examID, exam.State)
	}
}
