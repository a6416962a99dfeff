package service

import (
	"math"
	"sort"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"
)

const (
	classRecentAttemptLimit = 50
	topWeakTopicLimit       = 5
)

type ClassWeakAreaQuery struct {
	Batch   string `form:"batch" binding:"required"`
	Section string `form:"section" binding:"required"`
	Subject string `form:"subject"`
}

type StrugglingStudent struct {
	StudentID     uint                 `json:"studentId"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	RollNo        string               `json:"rollNo,omitempty"`
	Severity      model.WeakAreaStatus `json:"severity"`
	Accuracy      int                  `json:"accuracy"`
	WrongAnswers  int                  `json:"wrongAnswers"`
	TotalAttempts int                  `json:"totalAttempts"`
}

type AggregatedTopic struct {
	Subject        string              `json:"subject"`
	Topic          string              `json:"topic"`
	StudentCount   int                 `json:"studentCount"`
	CriticalCount  int                 `json:"criticalCount"`
	NeedsWorkCount int                 `json:"needsWorkCount"`
	Students       []StrugglingStudent `json:"students"`
	Subtopics      []string            `json:"subtopics"`
	Prerequisites  []string            `json:"prerequisites"`
}

type AttemptBrief struct {
	ID          uint                `json:"id"`
	QuizID      uint                `json:"quizId"`
	QuizTitle   string              `json:"quizTitle"`
	Subject     string              `json:"subject"`
	StudentID   uint                `json:"studentId"`
	StudentName string              `json:"studentName"`
	Score       int                 `json:"score"`
	MaxScore    int                 `json:"maxScore"`
	Percentage  int                 `json:"percentage"`
	Status      model.AttemptStatus `json:"status"`
	CompletedAt time.Time           `json:"completedAt"`
}

type StudentSummary struct {
	StudentID      uint           `json:"studentId"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	RollNo         string         `json:"rollNo,omitempty"`
	WeakAreaCount  int            `json:"weakAreaCount"`
	CriticalCount  int            `json:"criticalCount"`
	RecentAttempts []AttemptBrief `json:"recentAttempts"`
	AvgRecentScore float64        `json:"avgRecentScore"`
}

type TopicCount struct {
	Subject      string `json:"subject"`
	Topic        string `json:"topic"`
	StudentCount int    `json:"studentCount"`
}

type ClassStats struct {
	TotalStudents          int          `json:"totalStudents"`
	StudentsWithWeakAreas  int          `json:"studentsWithWeakAreas"`
	CriticalTopics         int          `json:"criticalTopics"`
	AvgWeakAreasPerStudent float64      `json:"avgWeakAreasPerStudent"`
	TopWeakTopics          []TopicCount `json:"topWeakTopics"`
}

type ClassWeakAreaReport struct {
	AggregatedTopics []AggregatedTopic `json:"aggregatedTopics"`
	StudentSummaries []StudentSummary  `json:"studentSummaries"`
	Stats            ClassStats        `json:"stats"`
	RecentAttempts   []AttemptBrief    `json:"recentAttempts"`
}

// AggregateClassWeakAreas 按花名册快照汇总班级薄弱点
// students 和 areas 需按 id 有序传入，recent 按完成时间倒序
func AggregateClassWeakAreas(students []model.User, areas []model.WeakArea, recent []model.QuizAttempt) ClassWeakAreaReport {
	byID := make(map[uint]*model.User, len(students))
	for i := range students {
		byID[students[i].ID] = &students[i]
	}

	type topicKey struct{ subject, topic string }
	index := make(map[topicKey]int)
	topics := []AggregatedTopic{}
	weakCount := make(map[uint]int)
	criticalCount := make(map[uint]int)
	totalWeak := 0

	for _, a := range areas {
		student, ok := byID[a.StudentID]
		if !ok {
			continue
		}

		key := topicKey{a.Subject, a.Topic}
		i, seen := index[key]
		if !seen {
			i = len(topics)
			index[key] = i
			topics = append(topics, AggregatedTopic{
				Subject:       a.Subject,
				Topic:         a.Topic,
				Students:      []StrugglingStudent{},
				Subtopics:     []string{},
				Prerequisites: []string{},
			})
		}

		t := &topics[i]
		t.Students = append(t.Students, StrugglingStudent{
			StudentID:     student.ID,
			Name:          student.Name,
			Email:         student.Email,
			RollNo:        student.RollNo,
			Severity:      a.Status,
			Accuracy:      a.Accuracy(),
			WrongAnswers:  a.WrongAnswersCount,
			TotalAttempts: a.TotalAttempts,
		})
		t.StudentCount = len(t.Students)
		t.Subtopics = model.UnionStrings(t.Subtopics, a.Subtopics...)
		t.Prerequisites = model.UnionStrings(t.Prerequisites, a.Prerequisites...)
		switch a.Status {
		case model.WeakCritical:
			t.CriticalCount++
			criticalCount[a.StudentID]++
		case model.WeakNeedsWork:
			t.NeedsWorkCount++
		}

		weakCount[a.StudentID]++
		totalWeak++
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].StudentCount > topics[j].StudentCount
	})

	recentBriefs := make([]AttemptBrief, 0, len(recent))
	recentByStudent := make(map[uint][]AttemptBrief)
	for i, a := range recent {
		if i >= classRecentAttemptLimit {
			break
		}
		brief := briefOf(a, byID[a.StudentID])
		recentBriefs = append(recentBriefs, brief)
		recentByStudent[a.StudentID] = append(recentByStudent[a.StudentID], brief)
	}

	summaries := []StudentSummary{}
	for _, s := range students {
		if weakCount[s.ID] == 0 {
			continue
		}
		attempts := recentByStudent[s.ID]
		if attempts == nil {
			attempts = []AttemptBrief{}
		}
		summaries = append(summaries, StudentSummary{
			StudentID:      s.ID,
			Name:           s.Name,
			Email:          s.Email,
			RollNo:         s.RollNo,
			WeakAreaCount:  weakCount[s.ID],
			CriticalCount:  criticalCount[s.ID],
			RecentAttempts: attempts,
			AvgRecentScore: averagePercentage(attempts),
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].CriticalCount != summaries[j].CriticalCount {
			return summaries[i].CriticalCount > summaries[j].CriticalCount
		}
		return summaries[i].WeakAreaCount > summaries[j].WeakAreaCount
	})

	stats := ClassStats{
		TotalStudents:         len(students),
		StudentsWithWeakAreas: len(summaries),
		TopWeakTopics:         []TopicCount{},
	}
	for _, t := range topics {
		if t.CriticalCount > 0 {
			stats.CriticalTopics++
		}
	}
	if len(students) > 0 {
		stats.AvgWeakAreasPerStudent = round1(float64(totalWeak) / float64(len(students)))
	}
	for i, t := range topics {
		if i >= topWeakTopicLimit {
			break
		}
		stats.TopWeakTopics = append(stats.TopWeakTopics, TopicCount{
			Subject: t.Subject, Topic: t.Topic, StudentCount: t.StudentCount,
		})
	}

	return ClassWeakAreaReport{
		AggregatedTopics: topics,
		StudentSummaries: summaries,
		Stats:            stats,
		RecentAttempts:   recentBriefs,
	}
}

func briefOf(a model.QuizAttempt, student *model.User) AttemptBrief {
	b := AttemptBrief{
		ID:          a.ID,
		QuizID:      a.QuizID,
		Subject:     a.Subject,
		StudentID:   a.StudentID,
		Score:       a.Score,
		MaxScore:    a.MaxScore,
		Percentage:  a.Percentage,
		Status:      a.Status,
		CompletedAt: a.CompletedAt,
	}
	if a.Quiz != nil {
		b.QuizTitle = a.Quiz.Title
	}
	if student != nil {
		b.StudentName = student.Name
	}
	return b
}

func averagePercentage(attempts []AttemptBrief) float64 {
	if len(attempts) == 0 {
		return 0
	}
	sum := 0
	for _, a := range attempts {
		sum += a.Percentage
	}
	return round1(float64(sum) / float64(len(attempts)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClassReport 花名册 -> 薄弱点 -> 最近作答，任一步失败即整体失败
func (s *WeakAreaService) ClassReport(q ClassWeakAreaQuery) (*ClassWeakAreaReport, error) {
	if q.Batch == "" {
		return nil, util.FieldError("batch", "batch is a required field")
	}
	if q.Section == "" {
		return nil, util.FieldError("section", "section is a required field")
	}

	students, err := s.UserRepo.FindStudents(q.Batch, q.Section)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}

	areas, err := s.Repo.FindByStudents(ids, q.Subject)
	if err != nil {
		return nil, err
	}
	recent, err := s.AttemptRepo.FindRecentByStudents(ids, classRecentAttemptLimit)
	if err != nil {
		return nil, err
	}

	report := AggregateClassWeakAreas(students, areas, recent)
	return &report, nil
}
