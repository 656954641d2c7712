package model

// Borrower is a staff member or teacher allowed to take items out.
// Loans reference borrowers by id only; edits here never touch loan logic.
type Borrower struct {
	BaseModel
	Name      string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	NIP       string `gorm:"type:varchar(30);column:nip" json:"nip,omitempty"`
	OfficerID string `gorm:"type:varchar(30)" json:"officer_id,omitempty"`
	Phone     string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Gender    string `gorm:"type:varchar(1)" json:"gender,omitempty" validate:"omitempty,oneof=L P"`
}
