package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type TopicStatus string

const (
	TopicNotStarted TopicStatus = "not-started"
	TopicInProgress TopicStatus = "in-progress"
	TopicCompleted  TopicStatus = "completed"
)

func ParseTopicStatus(s string) (TopicStatus, error) {
	switch TopicStatus(s) {
	case TopicNotStarted, TopicInProgress, TopicCompleted:
		return TopicStatus(s), nil
	}
	return "", fmt.Errorf("invalid topic status %q", s)
}

type SyllabusTopic struct {
	Name          string      `json:"name" yaml:"name"`
	Status        TopicStatus `json:"status" yaml:"status"`
	CompletedDate *time.Time  `json:"completedDate,omitempty" yaml:"-"`
}

// UnmarshalJSON 兼容只有 isCompleted 字段的旧数据
func (t *SyllabusTopic) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name          string     `json:"name"`
		Status        string     `json:"status"`
		IsCompleted   *bool      `json:"isCompleted"`
		CompletedDate *time.Time `json:"completedDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Name = raw.Name
	t.CompletedDate = raw.CompletedDate
	switch {
	case raw.Status != "":
		status, err := ParseTopicStatus(raw.Status)
		if err != nil {
			return err
		}
		t.Status = status
	case raw.IsCompleted != nil && *raw.IsCompleted:
		t.Status = TopicCompleted
	default:
		t.Status = TopicNotStarted
	}
	return nil
}

// SetStatus 任意状态可互转，进入 completed 记录完成时间，离开时清空
func (t *SyllabusTopic) SetStatus(status TopicStatus, now time.Time) {
	if status == TopicCompleted {
		if t.Status != TopicCompleted || t.CompletedDate == nil {
			stamp := now
			t.CompletedDate = &stamp
		}
	} else {
		t.CompletedDate = nil
	}
	t.Status = status
}

type SyllabusSubject struct {
	Name            string          `json:"name" yaml:"name"`
	Code            string          `json:"code,omitempty" yaml:"code"`
	ProfessorID     uint            `json:"professorId,omitempty" yaml:"professorId"`
	Topics          []SyllabusTopic `json:"topics" yaml:"topics"`
	TotalTopics     int             `json:"totalTopics" yaml:"-"`
	CompletedTopics int             `json:"completedTopics" yaml:"-"`
}

// Recount 按知识点列表重新计数
func (s *SyllabusSubject) Recount() {
	s.TotalTopics = len(s.Topics)
	completed := 0
	for _, t := range s.Topics {
		if t.Status == TopicCompleted {
			completed++
		}
	}
	s.CompletedTopics = completed
}

func (s *SyllabusSubject) FindTopic(name string) (*SyllabusTopic, bool) {
	for i := range s.Topics {
		if s.Topics[i].Name == name {
			return &s.Topics[i], true
		}
	}
	return nil, false
}

// swagger:model Syllabus
type Syllabus struct {
	BaseModel
	Year      int                                  `gorm:"not null;uniqueIndex:idx_syllabus_key,priority:1" json:"year"`
	Semester  int                                  `gorm:"not null;uniqueIndex:idx_syllabus_key,priority:2" json:"semester"`
	Batch     string                               `gorm:"size:20;not null;uniqueIndex:idx_syllabus_key,priority:3" json:"batch"`
	Section   string                               `gorm:"size:20;not null;uniqueIndex:idx_syllabus_key,priority:4" json:"section"`
	Subjects  datatypes.JSONSlice[SyllabusSubject] `gorm:"type:json" json:"subjects"`
	UpdatedBy uint                                 `json:"updatedBy"`
}

func (Syllabus) TableName() string {
	return "syllabuses"
}

func (s *Syllabus) FindSubject(name string) (*SyllabusSubject, bool) {
	for i := range s.Subjects {
		if s.Subjects[i].Name == name {
			return &s.Subjects[i], true
		}
	}
	return nil, false
}

func (s *Syllabus) RecountAll() {
	for i := range s.Subjects {
		s.Subjects[i].Recount()
	}
}

// Progress 所有科目的已完成/总知识点数
func (s *Syllabus) Progress() (completed, total int) {
	for _, sub := range s.Subjects {
		completed += sub.CompletedTopics
		total += sub.TotalTopics
	}
	return
}
