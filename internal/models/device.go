package models

import "time"

// Device type codes stored in the device_type column.
const (
	DeviceTypeWeb     = 1
	DeviceTypeIOS     = 2
	DeviceTypeAndroid = 3
)

// Device tracks a client a user has issued a token from. A user may hold many
// devices but only one row per device UUID.
type Device struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string     `json:"user_id" gorm:"type:varchar(36);uniqueIndex:idx_user_device_uuid"`
	User        *User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	DeviceUUID  string     `json:"device_uuid" gorm:"type:varchar(36);uniqueIndex:idx_user_device_uuid"`
	DeviceType  int        `json:"device_type" gorm:"default:1"`
	LastLogin   *time.Time `json:"last_login"`
	DeviceOS    string     `json:"device_os" gorm:"type:varchar(20)"`
	DeviceModel string     `json:"device_model" gorm:"type:varchar(50)"`
	AppVersion  string     `json:"app_version" gorm:"type:varchar(20)"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (d *Device) TableName() string {
	return "user_devices"
}
