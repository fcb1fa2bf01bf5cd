package user

import "time"

type User struct {
	ID              int64      `gorm:"primaryKey"`
	Email           string     `gorm:"column:email;uniqueIndex;not null"`
	Username        *string    `gorm:"column:username;uniqueIndex"`
	PasswordHash    string     `gorm:"column:password_hash;not null"`
	FirstName       string     `gorm:"column:first_name"`
	LastName        string     `gorm:"column:last_name"`
	JobTitle        string     `gorm:"column:job_title"`
	Department      string     `gorm:"column:department"`
	PhoneNumber     string     `gorm:"column:phone_number"`
	OrganizationID  *string    `gorm:"column:organization_id;index"`
	Role            string     `gorm:"column:role;not null"`
	IsActive        bool       `gorm:"column:is_active;not null"`
	IsInvited       bool       `gorm:"column:is_invited;not null"`
	InvitationToken *string    `gorm:"column:invitation_token;uniqueIndex"`
	InvitedByID     *int64     `gorm:"column:invited_by_id"`
	InvitedAt       *time.Time `gorm:"column:invited_at"`
	DateJoined      time.Time  `gorm:"column:date_joined"`
	LastLogin       *time.Time `gorm:"column:last_login"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// HasUsablePassword is false for pending users until they accept.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != ""
}

type UserProfile struct {
	UserID      int64      `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Bio         string     `gorm:"column:bio"`
	Picture     string     `gorm:"column:picture"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth;type:date"`
	HireDate    *time.Time `gorm:"column:hire_date;type:date"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
