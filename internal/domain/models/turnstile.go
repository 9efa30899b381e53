package models

// Direction of a pass through a turnstile, derived from the door number
type Direction string

const (
	DirectionEntry   Direction = "entry"
	DirectionExit    Direction = "exit"
	DirectionUnknown Direction = "unknown"
)

// DirectionFromDoor maps the device door number to a pass direction.
// Door 1 is wired as entry, door 2 as exit on every controller in the fleet.
func DirectionFromDoor(doorNo int) Direction {
	switch doorNo {
	case 1:
		return DirectionEntry
	case 2:
		return DirectionExit
	default:
		return DirectionUnknown
	}
}

// Turnstile represents one physical face-recognition door controller
type Turnstile struct {
	BaseModel
	ZoneID       uint   `gorm:"index;not null" json:"zone_id"`
	Name         string `gorm:"type:varchar(100)" json:"name"`
	Number       int    `json:"number"`
	Brand        string `gorm:"type:varchar(50)" json:"brand"`
	Model        string `gorm:"type:varchar(50)" json:"model"`
	SerialNumber string `gorm:"type:varchar(50)" json:"serial_number"`
	IPAddress    string `gorm:"type:varchar(45);not null" json:"ip_address"`
	MACAddress   string `gorm:"type:varchar(17);uniqueIndex;not null" json:"mac_address"`
	Port         int    `gorm:"default:80" json:"port"`
	Username     string `gorm:"type:varchar(50)" json:"username"`
	Password     string `gorm:"type:varchar(100)" json:"-"`
	Status       bool   `gorm:"default:false" json:"status"` // health flag, maintained by the check sweep

	// Relations
	Zone *Zone `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
}
