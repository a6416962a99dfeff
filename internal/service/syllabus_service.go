package service

import (
	"context"
	"fmt"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/events"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

type SyllabusQuery struct {
	Year     int    `form:"year"`
	Semester int    `form:"semester"`
	Batch    string `form:"batch"`
	Section  string `form:"section"`
}

// yaml 标签供 lmsctl seed-syllabus 读取种子文件
type TopicRequest struct {
	Name   string `json:"name" yaml:"name" binding:"required,notblank"`
	Status string `json:"status" yaml:"status" binding:"omitempty,oneof=not-started in-progress completed"`
}

type SubjectRequest struct {
	Name        string         `json:"name" yaml:"name" binding:"required,notblank"`
	Code        string         `json:"code" yaml:"code"`
	ProfessorID uint           `json:"professorId" yaml:"professorId"`
	Topics      []TopicRequest `json:"topics" yaml:"topics" binding:"dive"`
}

type CreateSyllabusRequest struct {
	Year     int              `json:"year" yaml:"year" binding:"required,min=2000,max=2100"`
	Semester int              `json:"semester" yaml:"semester" binding:"required,min=1,max=12"`
	Batch    string           `json:"batch" yaml:"batch" binding:"required,notblank"`
	Section  string           `json:"section" yaml:"section" binding:"required,notblank"`
	Subjects []SubjectRequest `json:"subjects" yaml:"subjects" binding:"required,dive"`
}

type TopicUpdate struct {
	Topic  string `json:"topic" binding:"required"`
	Status string `json:"status" binding:"required"`
}

type UpdateTopicsRequest struct {
	SubjectName  string        `json:"subjectName" binding:"required"`
	TopicUpdates []TopicUpdate `json:"topicUpdates" binding:"required,min=1,dive"`
}

type TopicUpdatedEvent struct {
	SyllabusID      uint          `json:"syllabusId"`
	Subject         string        `json:"subject"`
	Updates         []TopicUpdate `json:"updates"`
	CompletedTopics int           `json:"completedTopics"`
	TotalTopics     int           `json:"totalTopics"`
	UpdatedBy       uint          `json:"updatedBy"`
}

// ApplyTopicUpdates 先校验全部更新再写入，任一项非法则大纲不变；之后按知识点列表重新计数
func ApplyTopicUpdates(s *model.Syllabus, subjectName string, updates []TopicUpdate, now time.Time) (*model.SyllabusSubject, error) {
	subject, ok := s.FindSubject(subjectName)
	if !ok {
		return nil, util.FieldError("subjectName", fmt.Sprintf("subject %q not found in syllabus", subjectName))
	}

	statuses := make([]model.TopicStatus, len(updates))
	for i, u := range updates {
		status, err := model.ParseTopicStatus(u.Status)
		if err != nil {
			return nil, util.FieldError(fmt.Sprintf("topicUpdates[%d].status", i), "status must be one of not-started, in-progress, completed")
		}
		if _, ok := subject.FindTopic(u.Topic); !ok {
			return nil, util.FieldError(fmt.Sprintf("topicUpdates[%d].topic", i), fmt.Sprintf("topic %q not found in %s", u.Topic, subjectName))
		}
		statuses[i] = status
	}

	for i, u := range updates {
		topic, _ := subject.FindTopic(u.Topic)
		topic.SetStatus(statuses[i], now)
	}
	subject.Recount()
	return subject, nil
}

// BuildSyllabus 从请求构造大纲，未给出状态的知识点视为未开始
func BuildSyllabus(req CreateSyllabusRequest, updatedBy uint, now time.Time) (*model.Syllabus, error) {
	s := &model.Syllabus{
		Year:      req.Year,
		Semester:  req.Semester,
		Batch:     req.Batch,
		Section:   req.Section,
		UpdatedBy: updatedBy,
	}
	seen := make(map[string]bool, len(req.Subjects))
	for i, sub := range req.Subjects {
		if seen[sub.Name] {
			return nil, util.FieldError(fmt.Sprintf("subjects[%d].name", i), fmt.Sprintf("duplicate subject %q", sub.Name))
		}
		seen[sub.Name] = true

		subject := model.SyllabusSubject{
			Name:        sub.Name,
			Code:        sub.Code,
			ProfessorID: sub.ProfessorID,
			Topics:      make([]model.SyllabusTopic, 0, len(sub.Topics)),
		}
		for j, t := range sub.Topics {
			status := model.TopicNotStarted
			if t.Status != "" {
				var err error
				if status, err = model.ParseTopicStatus(t.Status); err != nil {
					return nil, util.FieldError(fmt.Sprintf("subjects[%d].topics[%d].status", i, j), err.Error())
				}
			}
			topic := model.SyllabusTopic{Name: t.Name}
			topic.SetStatus(status, now)
			subject.Topics = append(subject.Topics, topic)
		}
		s.Subjects = append(s.Subjects, subject)
	}
	s.RecountAll()
	return s, nil
}

type SyllabusService struct {
	Repo     *repository.SyllabusRepository
	UserRepo *repository.UserRepository
	Events   events.Publisher
	now      func() time.Time
}

func NewSyllabusService(repo *repository.SyllabusRepository, userRepo *repository.UserRepository, publisher events.Publisher) *SyllabusService {
	return &SyllabusService{Repo: repo, UserRepo: userRepo, Events: publisher, now: time.Now}
}

// List 学生只能看到自己班级的大纲
func (s *SyllabusService) List(id util.Identity, q SyllabusQuery) ([]model.Syllabus, error) {
	if id.Role == model.Student {
		me, err := s.UserRepo.FindByID(id.UserID)
		if err != nil {
			return nil, notFoundOr(err, util.ErrUserNotFound)
		}
		q.Batch, q.Section = me.Batch, me.Section
	}
	list, err := s.Repo.List(repository.SyllabusFilter{
		Year: q.Year, Semester: q.Semester, Batch: q.Batch, Section: q.Section,
	})
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].RecountAll()
	}
	return list, nil
}

func (s *SyllabusService) Get(id uint) (*model.Syllabus, error) {
	syl, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err, util.ErrSyllabusNotFound)
	}
	syl.RecountAll()
	return syl, nil
}

func (s *SyllabusService) Create(userID uint, req CreateSyllabusRequest) (*model.Syllabus, error) {
	syl, err := BuildSyllabus(req, userID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(syl); err != nil {
		if isDuplicate(err) {
			return nil, util.ErrSyllabusExists
		}
		return nil, err
	}
	logger.Log.Info("Syllabus created",
		zap.Uint("syllabusId", syl.ID),
		zap.Int("year", syl.Year),
		zap.Int("semester", syl.Semester),
		zap.String("batch", syl.Batch),
		zap.String("section", syl.Section),
	)
	return syl, nil
}

func (s *SyllabusService) UpdateTopics(ctx context.Context, userID, syllabusID uint, req UpdateTopicsRequest) (*model.Syllabus, error) {
	syl, err := s.Repo.FindByID(syllabusID)
	if err != nil {
		return nil, notFoundOr(err, util.ErrSyllabusNotFound)
	}

	subject, err := ApplyTopicUpdates(syl, req.SubjectName, req.TopicUpdates, s.now())
	if err != nil {
		return nil, err
	}
	syl.UpdatedBy = userID
	if err := s.Repo.Update(syl); err != nil {
		return nil, err
	}

	logger.Log.Info("Syllabus topics updated",
		zap.Uint("syllabusId", syl.ID),
		zap.String("subject", subject.Name),
		zap.Int("updates", len(req.TopicUpdates)),
		zap.Int("completedTopics", subject.CompletedTopics),
	)
	if s.Events != nil {
		evt := TopicUpdatedEvent{
			SyllabusID:      syl.ID,
			Subject:         subject.Name,
			Updates:         req.TopicUpdates,
			CompletedTopics: subject.CompletedTopics,
			TotalTopics:     subject.TotalTopics,
			UpdatedBy:       userID,
		}
		if perr := s.Events.Publish(ctx, events.SyllabusTopicUpdated, evt); perr != nil {
			logger.Log.Warn("Failed to publish syllabus event", zap.Error(perr))
		}
	}
	return syl, nil
}

func (s *SyllabusService) Delete(id uint) error {
	if _, err := s.Repo.FindByID(id); err != nil {
		return notFoundOr(err, util.ErrSyllabusNotFound)
	}
	return s.Repo.Delete(id)
}

// Seed 按 (year, semester, batch, section) 新建或更新大纲，仍存在的知识点保留原进度
func (s *SyllabusService) Seed(reqs []CreateSyllabusRequest) (created, updated int, err error) {
	now := s.now()
	for _, req := range reqs {
		fresh, err := BuildSyllabus(req, 0, now)
		if err != nil {
			return created, updated, fmt.Errorf("seed %d/%d %s-%s: %w", req.Year, req.Semester, req.Batch, req.Section, err)
		}

		existing, err := s.Repo.FindByKey(req.Year, req.Semester, req.Batch, req.Section)
		if err != nil {
			if !isNotFound(err) {
				return created, updated, err
			}
			if err := s.Repo.Create(fresh); err != nil {
				return created, updated, err
			}
			created++
			continue
		}

		mergeProgress(fresh, existing)
		existing.Subjects = fresh.Subjects
		if err := s.Repo.Update(existing); err != nil {
			return created, updated, err
		}
		updated++
	}
	return created, updated, nil
}

func mergeProgress(fresh, existing *model.Syllabus) {
	for i := range fresh.Subjects {
		old, ok := existing.FindSubject(fresh.Subjects[i].Name)
		if !ok {
			continue
		}
		for j := range fresh.Subjects[i].Topics {
			t := &fresh.Subjects[i].Topics[j]
			if prev, ok := old.FindTopic(t.Name); ok && t.Status == model.TopicNotStarted {
				t.Status = prev.Status
				t.CompletedDate = prev.CompletedDate
			}
		}
		fresh.Subjects[i].Recount()
	}
}
