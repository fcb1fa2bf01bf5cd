package timeoff

import "time"

type TimeOff struct {
	ID           int64      `gorm:"primaryKey"`
	UserID       int64      `gorm:"column:user_id;index;not null"`
	StartDate    time.Time  `gorm:"column:start_date;type:date;not null"`
	EndDate      time.Time  `gorm:"column:end_date;type:date;not null"`
	RequestType  string     `gorm:"column:request_type;not null"`
	Status       string     `gorm:"column:status;index;not null"`
	Reason       string     `gorm:"column:reason"`
	ReviewedByID *int64     `gorm:"column:reviewed_by_id"`
	ReviewedAt   *time.Time `gorm:"column:reviewed_at"`
	ReviewNotes  string     `gorm:"column:review_notes"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (TimeOff) TableName() string {
	return "time_off_requests"
}

// TimeOffDetail is a request joined with its requester's names.
type TimeOffDetail struct {
	TimeOff       `gorm:"embedded"`
	UserFirstName string `gorm:"column:user_first_name"`
	UserLastName  string `gorm:"column:user_last_name"`
	UserEmail     string `gorm:"column:user_email"`
}
