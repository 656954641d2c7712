package model

// Setting is the singleton system configuration row. Defaults mirror what
// the settings page expects; missing fields are filled on boot.
type Setting struct {
	BaseModel
	SiteName         string `gorm:"type:varchar(255);not null;default:'MRC Inventory'" json:"site_name"`
	DefaultLoanDays  int    `gorm:"not null;default:7" json:"default_loan_days" validate:"omitempty,gt=0"`
	MaxLoanItems     int    `gorm:"not null;default:5" json:"max_loan_items" validate:"omitempty,gt=0"`
	OverdueReminders bool   `gorm:"default:true" json:"overdue_reminders"`
	ReturnReminders  bool   `gorm:"default:true" json:"return_reminders"`
}

// DefaultSetting returns the seed values used when no settings row exists yet.
func DefaultSetting() Setting {
	return Setting{
		SiteName:         "MRC Inventory",
		DefaultLoanDays:  7,
		MaxLoanItems:     5,
		OverdueReminders: true,
		ReturnReminders:  true,
	}
}
