package services

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
	"github.com/yusufturaev707/faceid/internal/infrastructure/hikvision"
	"github.com/yusufturaev707/faceid/pkg/logger"
)

// InterfaceTurnstileService defines the turnstile registry interface
type InterfaceTurnstileService interface {
	TurnstileResolver
	GetByID(id uint) (*models.Turnstile, error)
	ListByZone(zoneID uint) ([]models.Turnstile, error)
	ListByRegion(regionID uint) ([]models.Turnstile, error)
	HealthSweep(ctx context.Context) (total, active int, err error)
}

// TurnstileService resolves physical devices to exam bindings and maintains
// their health flags
type TurnstileService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewTurnstileService creates a new turnstile service
func NewTurnstileService(db *gorm.DB, cfg *config.Config) InterfaceTurnstileService {
	return &TurnstileService{DB: db, Config: cfg}
}

// ResolveBinding finds the turnstile by MAC and its binding to a not-yet-
// finished exam. Returns nil when either is missing; an unknown device is a
// routine event, not an error.
func (s *TurnstileService) ResolveBinding(mac string) (*TurnstileBinding, error) {
	var turnstile models.Turnstile
	err := s.DB.Preload("Zone").Where("mac_address = ?", mac).First(&turnstile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var binding models.ExamTurnstile
	err = s.bindingQuery(turnstile.ID).Preload("Exam").First(&binding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &TurnstileBinding{
		Turnstile: turnstile,
		Exam:      *binding.Exam,
		Binding:   binding,
	}, nil
}

// bindingQuery selects the newest active binding of an unfinished exam for
// one turnstile. A deactivated binding must never grant access.
func (s *TurnstileService) bindingQuery(turnstileID uint) *gorm.DB {
	return s.DB.Model(&models.ExamTurnstile{}).
		Joins("JOIN exams ON exams.id = exam_turnstiles.exam_id").
		Where("exam_turnstiles.turnstile_id = ? AND exam_turnstiles.status = ? AND exams.is_finished = ?",
			turnstileID, true, false).
		Order("exam_turnstiles.id DESC")
}

// GetByID returns one turnstile with its zone
func (s *TurnstileService) GetByID(id uint) (*models.Turnstile, error) {
	var t models.Turnstile
	if err := s.DB.Preload("Zone").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByZone returns all turnstiles of a building
func (s *TurnstileService) ListByZone(zoneID uint) ([]models.Turnstile, error) {
	var list []models.Turnstile
	err := s.DB.Where("zone_id = ?", zoneID).Order("number").Find(&list).Error
	return list, err
}

// ListByRegion returns all turnstiles across a region's buildings
func (s *TurnstileService) ListByRegion(regionID uint) ([]models.Turnstile, error) {
	var list []models.Turnstile
	err := s.DB.Preload("Zone").
		Joins("JOIN zones ON zones.id = turnstiles.zone_id").
		Where("zones.region_id = ?", regionID).
		Order("zones.number, turnstiles.number").
		Find(&list).Error
	return list, err
}

// HealthSweep checks every turnstile's activation status and updates the
// Status flags. Returns total and active counts.
func (s *TurnstileService) HealthSweep(ctx context.Context) (int, int, error) {
	var all []models.Turnstile
	if err := s.DB.Find(&all).Error; err != nil {
		return 0, 0, err
	}

	active := 0
	for i := range all {
		t := &all[i]
		session := hikvision.NewDeviceSession(deviceHost(t), s.credUser(t), s.credPass(t), s.Config.DeviceTimeout, nil)
		ok, err := session.CheckActivated(ctx)
		if err != nil {
			logger.Warning("health check %s (%s): %v", t.Name, t.IPAddress, err)
			ok = false
		}
		if ok {
			active++
		}
		if t.Status != ok {
			if err := s.DB.Model(t).Update("status", ok).Error; err != nil {
				logger.Error("health flag update for turnstile %d: %v", t.ID, err)
			}
		}
	}
	return len(all), active, nil
}

// credUser falls back to the fleet-wide credentials when a device has none
// of its own
func (s *TurnstileService) credUser(t *models.Turnstile) string {
	if t.Username != "" {
		return t.Username
	}
	return s.Config.DeviceUsername
}

func (s *TurnstileService) credPass(t *models.Turnstile) string {
	if t.Password != "" {
		return t.Password
	}
	return s.Config.DevicePassword
}

func deviceHost(t *models.Turnstile) string {
	if t.Port != 0 && t.Port != 80 {
		return t.IPAddress + ":" + strconv.Itoa(t.Port)
	}
	return t.IPAddress
}

// BarrierClient adapts a per-call DeviceSession to the engine's
// BarrierOpener interface
type BarrierClient struct {
	Config *config.Config
}

// NewBarrierClient creates the live-path barrier opener
func NewBarrierClient(cfg *config.Config) *BarrierClient {
	return &BarrierClient{Config: cfg}
}

// Open creates a fresh session and issues one open command with the
// configured short timeout. No retry: a person is standing at the door.
func (b *BarrierClient) Open(t *models.Turnstile, doorNo int) (bool, error) {
	user := t.Username
	if user == "" {
		user = b.Config.DeviceUsername
	}
	pass := t.Password
	if pass == "" {
		pass = b.Config.DevicePassword
	}
	session := hikvision.NewDeviceSession(deviceHost(t), user, pass, b.Config.DeviceTimeout, nil)

	ctx, cancel := context.WithTimeout(context.Background(), b.Config.DeviceTimeout)
	defer cancel()
	return session.OpenDoor(ctx, doorNo)
}

var _ BarrierOpener = (*BarrierClient)(nil)
var _ TurnstileResolver = (*TurnstileService)(nil)
