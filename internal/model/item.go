package model

type ItemCondition string

const (
	ConditionGood    ItemCondition = "Baik"
	ConditionDamaged ItemCondition = "Rusak"
	ConditionLost    ItemCondition = "Hilang"
)

// Item is a lendable inventory asset. Stock counts units currently on the
// shelf; units out on open loans are not part of Stock.
type Item struct {
	BaseModel
	Name        string        `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Category    string        `gorm:"type:varchar(100)" json:"category"`
	Stock       int           `gorm:"not null;default:0;check:stock >= 0" json:"stock" validate:"gte=0"`
	Condition   ItemCondition `gorm:"type:varchar(10);not null;default:'Baik'" json:"condition" validate:"omitempty,oneof=Baik Rusak Hilang"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	Icon        string        `gorm:"type:varchar(50)" json:"icon,omitempty"`
}
