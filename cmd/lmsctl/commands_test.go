package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/testutil"
	"lms_backend/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCLI(t *testing.T) (*commandLine, *gorm.DB, *bytes.Buffer) {
	t.Helper()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	publisher := events.NewRecordingPublisher()
	out := &bytes.Buffer{}
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour}}
	return &commandLine{
		auth:     service.NewAuthService(users, cfg),
		syllabus: service.NewSyllabusService(repository.NewSyllabusRepository(db), users, publisher),
		rankings: service.NewRankingService(repository.NewRankingRepository(db), users, repository.NewQuizAttemptRepository(db), publisher),
		out:      out,
	}, db, out
}

func TestUsage(t *testing.T) {
	cli, _, out := newCLI(t)
	assert.ErrorIs(t, cli.run([]string{"lmsctl"}), errHelp)
	assert.ErrorIs(t, cli.run([]string{"lmsctl", "nope"}), errHelp)
	assert.Contains(t, out.String(), "seed-syllabus")
}

func TestCreateAdmin(t *testing.T) {
	cli, db, out := newCLI(t)

	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })
	readPasswordFunc = func(int) ([]byte, error) { return []byte("s3cret-pass"), nil }

	require.NoError(t, cli.run([]string{"lmsctl", "create-admin", "-name", "Root", "-email", "Root@Uni.edu"}))
	assert.Contains(t, out.String(), "admin root@uni.edu created")

	var user model.User
	require.NoError(t, db.Where("email = ?", "root@uni.edu").First(&user).Error)
	assert.Equal(t, model.Admin, user.Role)
	assert.Equal(t, model.UserActive, user.Status)

	err := cli.run([]string{"lmsctl", "create-admin", "-email", "root@uni.edu"})
	assert.Error(t, err)

	readPasswordFunc = func(int) ([]byte, error) { return []byte("short"), nil }
	err = cli.run([]string{"lmsctl", "create-admin", "-email", "other@uni.edu"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")

	assert.ErrorIs(t, cli.run([]string{"lmsctl", "create-admin"}), errHelp)
}

func TestSeedSyllabusUpserts(t *testing.T) {
	cli, db, out := newCLI(t)
	file := filepath.Join(t.TempDir(), "syllabus.yaml")
	seed := `
- year: 2024
  semester: 3
  batch: "2022"
  section: C
  subjects:
    - name: DSA
      topics:
        - name: Arrays
          status: completed
        - name: Trees
`
	require.NoError(t, os.WriteFile(file, []byte(seed), 0o600))

	require.NoError(t, cli.run([]string{"lmsctl", "seed-syllabus", "-file", file}))
	assert.Contains(t, out.String(), "1 created, 0 updated")

	require.NoError(t, cli.run([]string{"lmsctl", "seed-syllabus", "-file", file}))
	assert.Contains(t, out.String(), "0 created, 1 updated")

	var count int64
	require.NoError(t, db.Model(&model.Syllabus{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSeedSyllabusRejectsInvalidFile(t *testing.T) {
	cli, _, _ := newCLI(t)
	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("- year: 1999\n  semester: 3\n  batch: \"2022\"\n  section: C\n  subjects: []\n"), 0o600))

	err := cli.run([]string{"lmsctl", "seed-syllabus", "-file", file})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year")
}

func TestSeedFileInRepoIsValid(t *testing.T) {
	reqs, err := loadSyllabusSeed(filepath.Join("..", "..", "seeds", "syllabus.yaml"))
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
}

func TestRecomputeRankings(t *testing.T) {
	cli, db, out := newCLI(t)
	ana := testutil.CreateStudent(t, db, "ana", "2022", "C")
	quiz := testutil.CreateQuiz(t, db, "DSA", testutil.Question("arrays", 0, 1))
	testutil.CreateAttempt(t, db, ana.ID, quiz.ID, "DSA", 1, 1, true, time.Now())

	require.NoError(t, cli.run([]string{"lmsctl", "recompute-rankings"}))
	assert.Contains(t, out.String(), "rankings rebuilt for 1 students")

	var row model.Ranking
	require.NoError(t, db.Where("student_id = ?", ana.ID).First(&row).Error)
	assert.Equal(t, 1, row.OverallRank)
}
