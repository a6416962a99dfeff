package model

import (
	"time"

	"gorm.io/datatypes"
)

type RankScope string

const (
	ScopeClass   RankScope = "class"
	ScopeBatch   RankScope = "batch"
	ScopeOverall RankScope = "overall"
)

func (s RankScope) Valid() bool {
	switch s {
	case ScopeClass, ScopeBatch, ScopeOverall:
		return true
	}
	return false
}

type SubjectScore struct {
	Attempts     int     `json:"attempts"`
	Passed       int     `json:"passed"`
	TotalScore   int     `json:"totalScore"`
	AverageScore float64 `json:"averageScore"`
}

// swagger:model Ranking
type Ranking struct {
	BaseModel
	StudentID        uint                                        `gorm:"not null;uniqueIndex:idx_ranking_key,priority:1" json:"studentId"`
	Student          *User                                       `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Batch            string                                      `gorm:"size:20;uniqueIndex:idx_ranking_key,priority:2;index:idx_ranking_cohort" json:"batch"`
	Section          string                                      `gorm:"size:20;uniqueIndex:idx_ranking_key,priority:3;index:idx_ranking_cohort" json:"section"`
	TotalScore       int                                         `json:"totalScore"`
	AverageScore     float64                                     `gorm:"index" json:"averageScore"`
	QuizzesAttempted int                                         `json:"quizzesAttempted"`
	QuizzesPassed    int                                         `json:"quizzesPassed"`
	SubjectScores    datatypes.JSONType[map[string]SubjectScore] `gorm:"type:json" json:"subjectScores"`
	ClassRank        int                                         `json:"classRank"`
	BatchRank        int                                         `json:"batchRank"`
	OverallRank      int                                         `json:"overallRank"`
	CurrentStreak    int                                         `json:"currentStreak"`
	LastUpdated      time.Time                                   `json:"lastUpdated"`
}

func (Ranking) TableName() string {
	return "rankings"
}

func (r *Ranking) RankFor(scope RankScope) int {
	switch scope {
	case ScopeClass:
		return r.ClassRank
	case ScopeBatch:
		return r.BatchRank
	default:
		return r.OverallRank
	}
}

func (r *Ranking) SetRank(scope RankScope, rank int) {
	switch scope {
	case ScopeClass:
		r.ClassRank = rank
	case ScopeBatch:
		r.BatchRank = rank
	default:
		r.OverallRank = rank
	}
}
