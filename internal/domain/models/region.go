package models

// Region represents an administrative region that groups exam venues
type Region struct {
	BaseModel
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	Number   int    `gorm:"unique;not null" json:"number"` // official region code
	IsPart   bool   `gorm:"default:false" json:"is_part"`  // sub-district of a larger region
	ParentID *uint  `json:"parent_id,omitempty"`
	Status   bool   `gorm:"default:true" json:"status"`

	// Relations
	Parent *Region `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Zones  []Zone  `gorm:"foreignKey:RegionID" json:"zones,omitempty"`
}

// Zone represents one exam building inside a region
type Zone struct {
	BaseModel
	Name     string `gorm:"type:varchar(150);not null" json:"name"`
	Number   int    `gorm:"not null" json:"number"`
	RegionID uint   `gorm:"index;not null" json:"region_id"`

	// Relations
	Region     *Region     `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	Turnstiles []Turnstile `gorm:"foreignKey:ZoneID" json:"turnstiles,omitempty"`
}
