package models

import "time"

// File is a stored payload belonging to a product. Path is relative to the
// configured media root.
type File struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);index"`
	Title     string    `json:"title" gorm:"type:varchar(50)" validate:"required,max=50"`
	IsEnable  bool      `json:"is_enable"`
	Path      string    `json:"path" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *File) TableName() string {
	return "files"
}
