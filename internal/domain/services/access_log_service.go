package services

import (
	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/pkg/logger"
)

// InterfaceAccessLogService defines the audit log interface
type InterfaceAccessLogService interface {
	LogWriter
	ListStudentLogs(examID uint, query models.PaginationQuery) ([]models.StudentLog, models.PaginationResult, error)
	ListSupervisorLogs(query models.PaginationQuery) ([]models.SupervisorLog, models.PaginationResult, error)
}

// AccessLogService appends audit rows. Write failures are logged server-side
// and never propagated: the device response must not depend on the audit
// trail.
type AccessLogService struct {
	DB *gorm.DB
}

// NewAccessLogService creates a new access log service
func NewAccessLogService(db *gorm.DB) InterfaceAccessLogService {
	return &AccessLogService{DB: db}
}

// WriteStudentLog appends one student audit row
func (s *AccessLogService) WriteStudentLog(entry *models.StudentLog) {
	if err := s.DB.Create(entry).Error; err != nil {
		logger.Error("student log write failed (%s at %s): %v", entry.EmployeeNo, entry.MACAddress, err)
	}
}

// WriteSupervisorLog appends one staff/proctor audit row
func (s *AccessLogService) WriteSupervisorLog(entry *models.SupervisorLog) {
	if err := s.DB.Create(entry).Error; err != nil {
		logger.Error("supervisor log write failed (%s at %s): %v", entry.EmployeeNo, entry.MACAddress, err)
	}
}

// ListStudentLogs returns a paginated page of student audit rows, newest
// first
func (s *AccessLogService) ListStudentLogs(examID uint, query models.PaginationQuery) ([]models.StudentLog, models.PaginationResult, error) {
	if query.PageNum < 1 {
		query.PageNum = 1
	}
	if query.PageSize < 1 || query.PageSize > 200 {
		query.PageSize = 50
	}

	db := s.DB.Model(&models.StudentLog{})
	if examID != 0 {
		db = db.Joins("JOIN students ON students.id = student_logs.student_id").
			Where("students.exam_id = ?", examID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	var logs []models.StudentLog
	err := db.Preload("Student").Order("student_logs.id DESC").
		Offset((query.PageNum - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&logs).Error
	if err != nil {
		return nil, models.PaginationResult{}, err
	}

	return logs, models.NewPaginationResult(int(total), query.PageNum, query.PageSize), nil
}

// ListSupervisorLogs returns a paginated page of staff audit rows, newest
// first
func (s *AccessLogService) ListSupervisorLogs(query models.PaginationQuery) ([]models.SupervisorLog, models.PaginationResult, error) {
	if query.PageNum < 1 {
		query.PageNum = 1
	}
	if query.PageSize < 1 || query.PageSize > 200 {
		query.PageSize = 50
	}

	var total int64
	if err := s.DB.Model(&models.SupervisorLog{}).Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	var logs []models.SupervisorLog
	err := s.DB.Preload("Supervisor").Order("id DESC").
		Offset((query.PageNum - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&logs).Error
	if err != nil {
		return nil, models.PaginationResult{}, err
	}

	return logs, models.NewPaginationResult(int(total), query.PageNum, query.PageSize), nil
}

var _ LogWriter = (*AccessLogService)(nil)
