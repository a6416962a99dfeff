package model

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

type WeakAreaStatus string

const (
	WeakCritical  WeakAreaStatus = "critical"
	WeakNeedsWork WeakAreaStatus = "needs_work"
	WeakImproving WeakAreaStatus = "improving"
	WeakMastered  WeakAreaStatus = "mastered"
)

// 正确率分档（整数百分比，含下界）
const (
	needsWorkFloor = 40
	improvingFloor = 60
	masteredFloor  = 85
)

// DeriveWeakAreaStatus 由累计计数推导严重程度，0 次作答按 0% 计
func DeriveWeakAreaStatus(totalAttempts, wrongAnswers int) WeakAreaStatus {
	if totalAttempts <= 0 {
		return WeakCritical
	}
	correct := totalAttempts - wrongAnswers
	if correct < 0 {
		correct = 0
	}
	// correct/total < floor/100  等价于  correct*100 < floor*total
	switch {
	case correct*100 < needsWorkFloor*totalAttempts:
		return WeakCritical
	case correct*100 < improvingFloor*totalAttempts:
		return WeakNeedsWork
	case correct*100 < masteredFloor*totalAttempts:
		return WeakImproving
	default:
		return WeakMastered
	}
}

// AccuracyPercent 四舍五入后的整数正确率
func AccuracyPercent(totalAttempts, wrongAnswers int) int {
	if totalAttempts <= 0 {
		return 0
	}
	return int(math.Round(float64(totalAttempts-wrongAnswers) / float64(totalAttempts) * 100))
}

// swagger:model WeakArea
type WeakArea struct {
	BaseModel
	StudentID         uint                        `gorm:"not null;uniqueIndex:idx_weak_area_key,priority:1" json:"studentId"`
	Student           *User                       `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Subject           string                      `gorm:"size:100;not null;uniqueIndex:idx_weak_area_key,priority:2" json:"subject"`
	Topic             string                      `gorm:"size:191;not null;uniqueIndex:idx_weak_area_key,priority:3" json:"topic"`
	Subtopics         datatypes.JSONSlice[string] `gorm:"type:json" json:"subtopics"`
	Prerequisites     datatypes.JSONSlice[string] `gorm:"type:json" json:"prerequisites"`
	WrongAnswersCount int                         `gorm:"default:0" json:"wrongAnswersCount"`
	TotalAttempts     int                         `gorm:"default:0" json:"totalAttempts"`
	Status            WeakAreaStatus              `gorm:"size:20;index" json:"status"`
	LastQuizID        uint                        `json:"lastQuizId"`
	LastAttemptAt     time.Time                   `json:"lastAttemptAt"`
}

func (WeakArea) TableName() string {
	return "weak_areas"
}

// Refresh 按计数重新推导 Status
func (w *WeakArea) Refresh() {
	w.Status = DeriveWeakAreaStatus(w.TotalAttempts, w.WrongAnswersCount)
}

func (w *WeakArea) Accuracy() int {
	return AccuracyPercent(w.TotalAttempts, w.WrongAnswersCount)
}

// UnionStrings 追加未出现过的值，保持首次出现顺序
func UnionStrings(base []string, values ...string) []string {
	seen := make(map[string]struct{}, len(base)+len(values))
	out := make([]string, 0, len(base)+len(values))
	for _, v := range base {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range values {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
