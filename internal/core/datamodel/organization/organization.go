package organization

import "time"

type Organization struct {
	ID          string    `gorm:"column:id;primaryKey;type:uuid"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	MaxUsers    int       `gorm:"column:max_users;not null"`
	Email       string    `gorm:"column:email"`
	Phone       string    `gorm:"column:phone"`
	Website     string    `gorm:"column:website"`
	Address     string    `gorm:"column:address"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Organization) TableName() string {
	return "organizations"
}
