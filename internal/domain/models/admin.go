package models

// Admin represents system administrators of the management API
type Admin struct {
	BaseModel
	Username string `gorm:"type:varchar(50);unique;not null" json:"username"`
	Password string `gorm:"type:varchar(100);not null" json:"-"`             // bcrypt hash, not exposed in JSON
	Role     string `gorm:"type:varchar(50);default:'admin'" json:"role"`    // Role: system_admin, admin
	Status   string `gorm:"type:varchar(20);default:'active'" json:"status"` // Status: active, inactive, locked
}
