package models

import "time"

// Product is a sellable digital item. Its downloadable payloads live in File
// rows, which are removed together with the product.
type Product struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string     `json:"title" gorm:"type:varchar(50)" validate:"required,max=50"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	Avatar      string     `json:"avatar" gorm:"type:varchar(255)"`
	IsEnable    bool       `json:"is_enable"`
	Categories  []Category `json:"categories,omitempty" gorm:"many2many:product_categories"`
	Files       []File     `json:"files,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p *Product) TableName() string {
	return "products"
}
