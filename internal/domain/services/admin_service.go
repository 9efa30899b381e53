package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
	"github.com/yusufturaev707/faceid/pkg/logger"
)

// InterfaceAdminService defines the admin account interface
type InterfaceAdminService interface {
	GetByID(id uint) (*models.Admin, error)
	EnsureDefaultAdmin() error
	ChangePassword(id uint, oldPassword, newPassword string) error
}

// AdminService manages management-API accounts
type AdminService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewAdminService creates a new admin service
func NewAdminService(db *gorm.DB, cfg *config.Config) InterfaceAdminService {
	return &AdminService{DB: db, Config: cfg}
}

// GetByID returns one admin
func (s *AdminService) GetByID(id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := s.DB.First(&admin, id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// EnsureDefaultAdmin creates the bootstrap admin account on first start
func (s *AdminService) EnsureDefaultAdmin() error {
	var count int64
	if err := s.DB.Model(&models.Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.Config.DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.Admin{
		Username: "admin",
		Password: string(hash),
		Role:     "system_admin",
		Status:   "active",
	}
	if err := s.DB.Create(&admin).Error; err != nil {
		return err
	}
	logger.Info("default admin account created")
	return nil
}

// ChangePassword verifies the old password and stores a new hash
func (s *AdminService) ChangePassword(id uint, oldPassword, newPassword string) error {
	admin, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(oldPassword)); err != nil {
		return errors.New("old password incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.DB.Model(admin).Update("password", string(hash)).Error
}
