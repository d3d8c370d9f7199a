package models

import "time"

// Category is a node in the catalog tree. ParentID is nil for root
// categories. Parent assignment is checked for cycles at the service layer;
// the schema itself does not prevent them.
type Category struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ParentID    *string    `json:"parent_id" gorm:"type:varchar(36);index"`
	Parent      *Category  `json:"-" gorm:"foreignKey:ParentID"`
	Children    []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Title       string     `json:"title" gorm:"type:varchar(50)" validate:"required,max=50"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	Avatar      string     `json:"avatar" gorm:"type:varchar(255)"`
	IsEnable    bool       `json:"is_enable"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (c *Category) TableName() string {
	return "categories"
}
