package model

import (
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	Student   UserRole = "student"
	Professor UserRole = "professor"
	Admin     UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case Student, Professor, Admin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserPending  UserStatus = "pending"
	UserActive   UserStatus = "active"
	UserDisabled UserStatus = "disabled"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string     `gorm:"size:100;not null" json:"name"`
	Email    string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string     `gorm:"size:100;not null" json:"-"`
	Role     UserRole   `gorm:"size:20;index;default:'student'" json:"role"`
	Status   UserStatus `gorm:"size:20;index;default:'pending'" json:"status"`
	Avatar   string     `gorm:"size:255" json:"avatar"`

	// 学生
	RollNo  string `gorm:"size:50;index" json:"rollNo,omitempty"`
	Batch   string `gorm:"size:20;index:idx_user_cohort" json:"batch,omitempty"`
	Section string `gorm:"size:20;index:idx_user_cohort" json:"section,omitempty"`

	// 教师
	Expertise       string                      `gorm:"size:255" json:"expertise,omitempty"`
	ClassesTeaching datatypes.JSONSlice[string] `gorm:"type:json" json:"classesTeaching,omitempty"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsStudent() bool   { return u.Role == Student }
func (u *User) IsProfessor() bool { return u.Role == Professor }
func (u *User) IsAdmin() bool     { return u.Role == Admin }
