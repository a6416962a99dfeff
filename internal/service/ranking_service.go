package service

import (
	"context"
	"sort"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/events"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// BuildRanking 重建学生的汇总行，attempts 需按时间倒序；名次留空，由 AssignRanks 按范围填写
func BuildRanking(student *model.User, attempts []model.QuizAttempt, now time.Time) model.Ranking {
	row := model.Ranking{
		StudentID:   student.ID,
		Batch:       student.Batch,
		Section:     student.Section,
		LastUpdated: now,
	}

	subjects := make(map[string]model.SubjectScore)
	subjectPct := make(map[string]int)
	percentSum := 0
	streakOpen := true

	for _, a := range attempts {
		row.QuizzesAttempted++
		row.TotalScore += a.Score
		percentSum += a.Percentage
		if a.Passed() {
			row.QuizzesPassed++
			if streakOpen {
				row.CurrentStreak++
			}
		} else {
			streakOpen = false
		}

		sub := subjects[a.Subject]
		sub.Attempts++
		sub.TotalScore += a.Score
		if a.Passed() {
			sub.Passed++
		}
		subjects[a.Subject] = sub
		subjectPct[a.Subject] += a.Percentage
	}

	if row.QuizzesAttempted > 0 {
		row.AverageScore = round2(float64(percentSum) / float64(row.QuizzesAttempted))
	}
	for name, sub := range subjects {
		sub.AverageScore = round2(float64(subjectPct[name]) / float64(sub.Attempts))
		subjects[name] = sub
	}
	row.SubjectScores = datatypes.NewJSONType(subjects)
	return row
}

// AssignRanks 按平均分降序排序并写入 1..n 名次；同分保持传入顺序（调用方按 student id 排好）
func AssignRanks(rows []model.Ranking, scope model.RankScope) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AverageScore > rows[j].AverageScore
	})
	for i := range rows {
		rows[i].SetRank(scope, i+1)
	}
}

type RankingService struct {
	Repo        *repository.RankingRepository
	UserRepo    *repository.UserRepository
	AttemptRepo *repository.QuizAttemptRepository
	Events      events.Publisher
}

func NewRankingService(
	repo *repository.RankingRepository,
	userRepo *repository.UserRepository,
	attemptRepo *repository.QuizAttemptRepository,
	publisher events.Publisher,
) *RankingService {
	return &RankingService{Repo: repo, UserRepo: userRepo, AttemptRepo: attemptRepo, Events: publisher}
}

// RecomputeForStudent 重建该学生的汇总行，再重排其所在的各个范围
func (s *RankingService) RecomputeForStudent(ctx context.Context, studentID uint) error {
	_, span := tracing.StartSpan(ctx, "ranking.recompute_student", attribute.Int64("studentId", int64(studentID)))
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	defer func() { monitoring.RankingRecomputeDuration.Observe(time.Since(start).Seconds()) }()

	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		err = notFoundOr(err, util.ErrUserNotFound)
		return err
	}
	// 教职工不进入任何排名范围
	if !student.IsStudent() {
		return nil
	}
	if err = s.rebuildRow(student); err != nil {
		return err
	}

	if err = s.rerank(model.ScopeClass, student.Batch, student.Section); err != nil {
		return err
	}
	if err = s.rerank(model.ScopeBatch, student.Batch, ""); err != nil {
		return err
	}
	err = s.rerank(model.ScopeOverall, "", "")
	return err
}

func (s *RankingService) rebuildRow(student *model.User) error {
	attempts, err := s.AttemptRepo.FindByStudent(student.ID)
	if err != nil {
		return err
	}
	row := BuildRanking(student, attempts, time.Now())
	return s.Repo.Upsert(&row)
}

func (s *RankingService) rerank(scope model.RankScope, batch, section string) error {
	rows, err := s.Repo.FindCohort(batch, section)
	if err != nil {
		return err
	}
	AssignRanks(rows, scope)
	return s.Repo.SaveRanks(scope, rows)
}

// RecomputeAll 全量重建，供管理接口、CLI 和定时任务使用
func (s *RankingService) RecomputeAll(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "ranking.recompute_all")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	defer func() { monitoring.RankingRecomputeDuration.Observe(time.Since(start).Seconds()) }()

	ids, err := s.AttemptRepo.StudentIDs()
	if err != nil {
		return 0, err
	}
	users, err := s.UserRepo.FindByIDs(ids)
	if err != nil {
		return 0, err
	}
	students := users[:0]
	for _, u := range users {
		if u.IsStudent() {
			students = append(students, u)
		}
	}
	for i := range students {
		if err = ctx.Err(); err != nil {
			return 0, err
		}
		if err = s.rebuildRow(&students[i]); err != nil {
			return 0, err
		}
	}

	all, err := s.Repo.FindCohort("", "")
	if err != nil {
		return 0, err
	}

	overall := append([]model.Ranking(nil), all...)
	AssignRanks(overall, model.ScopeOverall)
	if err = s.Repo.SaveRanks(model.ScopeOverall, overall); err != nil {
		return 0, err
	}

	// all 按 student_id 有序，分组后仍保持该顺序
	batches := make(map[string][]model.Ranking)
	classes := make(map[[2]string][]model.Ranking)
	var batchKeys []string
	var classKeys [][2]string
	for _, r := range all {
		if _, ok := batches[r.Batch]; !ok {
			batchKeys = append(batchKeys, r.Batch)
		}
		batches[r.Batch] = append(batches[r.Batch], r)
		ck := [2]string{r.Batch, r.Section}
		if _, ok := classes[ck]; !ok {
			classKeys = append(classKeys, ck)
		}
		classes[ck] = append(classes[ck], r)
	}
	for _, k := range batchKeys {
		AssignRanks(batches[k], model.ScopeBatch)
		if err = s.Repo.SaveRanks(model.ScopeBatch, batches[k]); err != nil {
			return 0, err
		}
	}
	for _, k := range classKeys {
		AssignRanks(classes[k], model.ScopeClass)
		if err = s.Repo.SaveRanks(model.ScopeClass, classes[k]); err != nil {
			return 0, err
		}
	}

	logger.Log.Info("Rankings recomputed", zap.Int("students", len(students)), zap.Duration("took", time.Since(start)))
	if s.Events != nil {
		if perr := s.Events.Publish(ctx, events.RankingsRecomputed, map[string]int{"students": len(students)}); perr != nil {
			logger.Log.Warn("Failed to publish ranking event", zap.Error(perr))
		}
	}
	return len(students), nil
}

type LeaderboardQuery struct {
	Type    string `form:"type"`
	Batch   string `form:"batch"`
	Section string `form:"section"`
}

type LeaderboardEntry struct {
	Rank             int                           `json:"rank"`
	StudentID        uint                          `json:"studentId"`
	Name             string                        `json:"name"`
	RollNo           string                        `json:"rollNo,omitempty"`
	Batch            string                        `json:"batch"`
	Section          string                        `json:"section"`
	TotalScore       int                           `json:"totalScore"`
	AverageScore     float64                       `json:"averageScore"`
	QuizzesAttempted int                           `json:"quizzesAttempted"`
	QuizzesPassed    int                           `json:"quizzesPassed"`
	CurrentStreak    int                           `json:"currentStreak"`
	SubjectScores    map[string]model.SubjectScore `json:"subjectScores"`
}

type Leaderboard struct {
	Type    model.RankScope    `json:"type"`
	Batch   string             `json:"batch,omitempty"`
	Section string             `json:"section,omitempty"`
	Entries []LeaderboardEntry `json:"rankings"`
}

// Leaderboard 学生默认查看自己所在班级/年级
func (s *RankingService) Leaderboard(id util.Identity, q LeaderboardQuery) (*Leaderboard, error) {
	scope := model.RankScope(q.Type)
	if q.Type == "" {
		scope = model.ScopeClass
	}
	if !scope.Valid() {
		return nil, util.FieldError("type", "type must be one of class, batch, overall")
	}

	batch, section := q.Batch, q.Section
	if id.Role == model.Student {
		me, err := s.UserRepo.FindByID(id.UserID)
		if err != nil {
			return nil, notFoundOr(err, util.ErrUserNotFound)
		}
		if batch == "" {
			batch = me.Batch
		}
		if section == "" {
			section = me.Section
		}
	}

	switch scope {
	case model.ScopeClass:
		if batch == "" || section == "" {
			return nil, util.FieldError("batch", "batch and section are required for class rankings")
		}
	case model.ScopeBatch:
		if batch == "" {
			return nil, util.FieldError("batch", "batch is required for batch rankings")
		}
		section = ""
	default:
		batch, section = "", ""
	}

	rows, err := s.Repo.Leaderboard(scope, batch, section)
	if err != nil {
		return nil, err
	}

	board := &Leaderboard{Type: scope, Batch: batch, Section: section, Entries: make([]LeaderboardEntry, 0, len(rows))}
	for _, r := range rows {
		entry := LeaderboardEntry{
			Rank:             r.RankFor(scope),
			StudentID:        r.StudentID,
			Batch:            r.Batch,
			Section:          r.Section,
			TotalScore:       r.TotalScore,
			AverageScore:     r.AverageScore,
			QuizzesAttempted: r.QuizzesAttempted,
			QuizzesPassed:    r.QuizzesPassed,
			CurrentStreak:    r.CurrentStreak,
			SubjectScores:    r.SubjectScores.Data(),
		}
		if r.Student != nil {
			entry.Name = r.Student.Name
			entry.RollNo = r.Student.RollNo
		}
		board.Entries = append(board.Entries, entry)
	}
	return board, nil
}

func (s *RankingService) ForStudent(studentID uint) (*model.Ranking, error) {
	row, err := s.Repo.FindByStudent(studentID)
	if err != nil {
		return nil, notFoundOr(err, util.NotFoundError("ranking not found"))
	}
	return row, nil
}
