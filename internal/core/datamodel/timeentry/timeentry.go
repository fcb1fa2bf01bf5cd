package timeentry

import "time"

type TimeEntry struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    int64      `gorm:"column:user_id;index;not null"`
	ProjectID *int64     `gorm:"column:project_id;index"`
	ClockIn   time.Time  `gorm:"column:clock_in;not null"`
	ClockOut  *time.Time `gorm:"column:clock_out"`
	Notes     string     `gorm:"column:notes"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (TimeEntry) TableName() string {
	return "time_entries"
}

// TimeEntryDetail is a time entry joined with its user and project names.
type TimeEntryDetail struct {
	TimeEntry     `gorm:"embedded"`
	UserFirstName string  `gorm:"column:user_first_name"`
	UserLastName  string  `gorm:"column:user_last_name"`
	UserEmail     string  `gorm:"column:user_email"`
	ProjectName   *string `gorm:"column:project_name"`
}
