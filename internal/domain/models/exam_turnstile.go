package models

import "gorm.io/gorm"

// ExamTurnstile binds one exam to one physical turnstile and tracks the
// provisioning progress for that door. UnpushedPersonPinfls and
// UnpushedImagePinfls keep the comma-separated national IDs whose push
// failed, so a retry can resume with just those.
type ExamTurnstile struct {
	BaseModel
	ExamID               uint   `gorm:"index:idx_exam_turnstile,unique;not null" json:"exam_id"`
	TurnstileID          uint   `gorm:"index:idx_exam_turnstile,unique;not null" json:"turnstile_id"`
	Status               bool   `gorm:"default:true" json:"status"` // deactivated bindings never grant access
	UnpushedPersonPinfls string `gorm:"type:text" json:"unpushed_person_pinfls"`
	UnpushedImagePinfls  string `gorm:"type:text" json:"unpushed_image_pinfls"`
	ExpectedCount        int    `gorm:"default:0" json:"expected_count"`
	PushedPersonCount    int    `gorm:"default:0" json:"pushed_person_count"`
	PushedImageCount     int    `gorm:"default:0" json:"pushed_image_count"`
	ErrPersonCount       int    `gorm:"default:0" json:"err_person_count"`
	ErrImageCount        int    `gorm:"default:0" json:"err_image_count"`
	Ready                bool   `gorm:"default:false" json:"ready"`

	// Relations
	Exam      *Exam      `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
	Turnstile *Turnstile `gorm:"foreignKey:TurnstileID" json:"turnstile,omitempty"`
}

// RecomputeReady derives the Ready flag from the counters. Never set Ready
// directly.
func (b *ExamTurnstile) RecomputeReady() {
	b.Ready = b.ExpectedCount > 0 &&
		b.ExpectedCount == b.PushedPersonCount &&
		b.ExpectedCount == b.PushedImageCount
}

// BeforeSave recomputes Ready on every save
func (b *ExamTurnstile) BeforeSave(tx *gorm.DB) error {
	b.RecomputeReady()
	return nil
}
