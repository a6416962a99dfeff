package service

import (
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
)

const recentAttemptLimit = 5

type DashboardService struct {
	UserRepo          *repository.UserRepository
	AttemptRepo       *repository.QuizAttemptRepository
	WeakAreaRepo      *repository.WeakAreaRepository
	RankingRepo       *repository.RankingRepository
	SyllabusRepo      *repository.SyllabusRepository
	ChangeRequestRepo *repository.ChangeRequestRepository
	DashboardRepo     *repository.DashboardRepository
}

func NewDashboardService(
	userRepo *repository.UserRepository,
	attemptRepo *repository.QuizAttemptRepository,
	weakAreaRepo *repository.WeakAreaRepository,
	rankingRepo *repository.RankingRepository,
	syllabusRepo *repository.SyllabusRepository,
	changeRequestRepo *repository.ChangeRequestRepository,
	dashboardRepo *repository.DashboardRepository,
) *DashboardService {
	return &DashboardService{
		UserRepo:          userRepo,
		AttemptRepo:       attemptRepo,
		WeakAreaRepo:      weakAreaRepo,
		RankingRepo:       rankingRepo,
		SyllabusRepo:      syllabusRepo,
		ChangeRequestRepo: changeRequestRepo,
		DashboardRepo:     dashboardRepo,
	}
}

// Dashboard 按角色只填充对应部分
type Dashboard struct {
	Role      model.UserRole      `json:"role"`
	Student   *StudentDashboard   `json:"student,omitempty"`
	Professor *ProfessorDashboard `json:"professor,omitempty"`
	Admin     *AdminDashboard     `json:"admin,omitempty"`
}

type StudentDashboard struct {
	RecentAttempts   []model.QuizAttempt            `json:"recentAttempts"`
	WeakAreaCounts   map[model.WeakAreaStatus]int64 `json:"weakAreaCounts"`
	Ranking          *model.Ranking                 `json:"ranking"`
	SyllabusProgress []SyllabusProgress             `json:"syllabusProgress"`
}

type SyllabusProgress struct {
	SyllabusID uint `json:"syllabusId"`
	Year       int  `json:"year"`
	Semester   int  `json:"semester"`
	Completed  int  `json:"completed"`
	Total      int  `json:"total"`
	Percent    int  `json:"percent"`
}

type ProfessorDashboard struct {
	Quizzes       []repository.QuizStat `json:"quizzes"`
	TotalAttempts int64                 `json:"totalAttempts"`
	Recent        []model.QuizAttempt   `json:"recentAttempts"`
}

type AdminDashboard struct {
	Users                 []repository.RoleStatusCount `json:"users"`
	PendingUsers          int64                        `json:"pendingUsers"`
	PendingChangeRequests int64                        `json:"pendingChangeRequests"`
}

func (s *DashboardService) Get(id util.Identity) (*Dashboard, error) {
	d := &Dashboard{Role: id.Role}
	var err error
	switch id.Role {
	case model.Student:
		d.Student, err = s.student(id.UserID)
	case model.Professor:
		d.Professor, err = s.professor(id.UserID)
	case model.Admin:
		d.Admin, err = s.admin()
	default:
		return nil, util.ForbiddenError("unknown role")
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DashboardService) student(userID uint) (*StudentDashboard, error) {
	me, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, notFoundOr(err, util.ErrUserNotFound)
	}

	attempts, err := s.AttemptRepo.FindByStudent(userID)
	if err != nil {
		return nil, err
	}
	if len(attempts) > recentAttemptLimit {
		attempts = attempts[:recentAttemptLimit]
	}

	counts, err := s.WeakAreaRepo.CountByStatus(userID)
	if err != nil {
		return nil, err
	}
	byStatus := map[model.WeakAreaStatus]int64{
		model.WeakCritical:  0,
		model.WeakNeedsWork: 0,
		model.WeakImproving: 0,
		model.WeakMastered:  0,
	}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	var ranking *model.Ranking
	row, err := s.RankingRepo.FindByStudent(userID)
	switch {
	case err == nil:
		ranking = row
	case !isNotFound(err):
		return nil, err
	}

	// 学生未分班时没有大纲
	progress := []SyllabusProgress{}
	if me.Batch != "" && me.Section != "" {
		list, err := s.SyllabusRepo.List(repository.SyllabusFilter{Batch: me.Batch, Section: me.Section})
		if err != nil {
			return nil, err
		}
		for _, sy := range list {
			completed, total := sy.Progress()
			p := SyllabusProgress{SyllabusID: sy.ID, Year: sy.Year, Semester: sy.Semester, Completed: completed, Total: total}
			if total > 0 {
				p.Percent = completed * 100 / total
			}
			progress = append(progress, p)
		}
	}

	return &StudentDashboard{
		RecentAttempts:   attempts,
		WeakAreaCounts:   byStatus,
		Ranking:          ranking,
		SyllabusProgress: progress,
	}, nil
}

func (s *DashboardService) professor(userID uint) (*ProfessorDashboard, error) {
	stats, err := s.DashboardRepo.QuizStatsByCreator(userID)
	if err != nil {
		return nil, err
	}
	d := &ProfessorDashboard{Quizzes: stats}
	ids := make([]uint, 0, len(stats))
	for _, st := range stats {
		ids = append(ids, st.QuizID)
		d.TotalAttempts += st.Attempts
	}
	d.Recent, err = s.AttemptRepo.FindByQuizIDs(ids, recentAttemptLimit)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DashboardService) admin() (*AdminDashboard, error) {
	counts, err := s.UserRepo.CountByRoleAndStatus()
	if err != nil {
		return nil, err
	}
	d := &AdminDashboard{Users: counts}
	for _, c := range counts {
		if c.Status == model.UserPending {
			d.PendingUsers += c.Count
		}
	}
	d.PendingChangeRequests, err = s.ChangeRequestRepo.CountPending()
	if err != nil {
		return nil, err
	}
	return d, nil
}
