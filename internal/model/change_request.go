package model

import (
	"time"

	"gorm.io/datatypes"
)

type ChangeRequestStatus string

const (
	ChangePending  ChangeRequestStatus = "pending"
	ChangeApproved ChangeRequestStatus = "approved"
	ChangeRejected ChangeRequestStatus = "rejected"
)

// ChangeableFields 允许申请修改的资料字段
var ChangeableFields = map[string]bool{
	"name":      true,
	"email":     true,
	"rollNo":    true,
	"batch":     true,
	"section":   true,
	"expertise": true,
}

// swagger:model ChangeRequest
type ChangeRequest struct {
	UUIDBase
	UserID     uint                                   `gorm:"not null;index" json:"userId"`
	User       *User                                  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Changes    datatypes.JSONType[map[string]string] `gorm:"type:json" json:"changes"`
	Reason     string                                 `gorm:"type:text" json:"reason"`
	Status     ChangeRequestStatus                    `gorm:"size:20;index;default:'pending'" json:"status"`
	ReviewedBy *uint                                  `json:"reviewedBy,omitempty"`
	ReviewNote string                                 `gorm:"type:text" json:"reviewNote,omitempty"`
	ReviewedAt *time.Time                             `json:"reviewedAt,omitempty"`
}

func (ChangeRequest) TableName() string {
	return "change_requests"
}
