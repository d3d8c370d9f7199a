package models

import "time"

// UserProfile extends a User with demographic fields. It is deleted with its
// user; deleting the referenced province only nulls the reference.
type UserProfile struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `json:"user_id" gorm:"uniqueIndex;type:varchar(36)"`
	User       *User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	NickName   string     `json:"nick_name" gorm:"type:varchar(150)"`
	Avatar     string     `json:"avatar" gorm:"type:varchar(255)"`
	Birthday   *time.Time `json:"birthday"`
	Gender     *bool      `json:"gender"` // false is female, true is male, nil is undisclosed
	ProvinceID *string    `json:"province_id" gorm:"type:varchar(36)"`
	Province   *Province  `json:"province,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (p *UserProfile) TableName() string {
	return "user_profiles"
}

// DisplayName falls back to the account username when no nickname is set.
func (p *UserProfile) DisplayName() string {
	if p.NickName != "" {
		return p.NickName
	}
	if p.User != nil {
		return p.User.Username
	}
	return ""
}

// Province is a flat reference table for profile locations.
type Province struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(50)" validate:"required,max=50"`
	IsValid   bool      `json:"is_valid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Province) TableName() string {
	return "provinces"
}
