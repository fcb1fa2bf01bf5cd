package project

import "time"

type Project struct {
	ID             int64     `gorm:"primaryKey"`
	OrganizationID *string   `gorm:"column:organization_id;index"`
	Name           string    `gorm:"column:name;not null"`
	Description    string    `gorm:"column:description"`
	Client         string    `gorm:"column:client"`
	IsActive       bool      `gorm:"column:is_active;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Project) TableName() string {
	return "projects"
}
