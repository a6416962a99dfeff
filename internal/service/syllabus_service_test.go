package service

import (
	"context"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"
	"lms_backend/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSyllabusRequest() CreateSyllabusRequest {
	return CreateSyllabusRequest{
		Year: 2024, Semester: 3, Batch: "2022", Section: "C",
		Subjects: []SubjectRequest{{
			Name: "DSA",
			Topics: []TopicRequest{
				{Name: "Arrays", Status: "completed"},
				{Name: "Trees"},
				{Name: "Graphs", Status: "in-progress"},
			},
		}},
	}
}

func TestApplyTopicUpdates(t *testing.T) {
	now := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	syl, err := BuildSyllabus(sampleSyllabusRequest(), 1, now)
	require.NoError(t, err)

	dsa, _ := syl.FindSubject("DSA")
	assert.Equal(t, 3, dsa.TotalTopics)
	assert.Equal(t, 1, dsa.CompletedTopics)

	later := now.Add(time.Hour)
	dsa, err = ApplyTopicUpdates(syl, "DSA", []TopicUpdate{{Topic: "Trees", Status: "completed"}}, later)
	require.NoError(t, err)
	assert.Equal(t, 2, dsa.CompletedTopics)
	trees, _ := dsa.FindTopic("Trees")
	require.NotNil(t, trees.CompletedDate)
	assert.Equal(t, later, *trees.CompletedDate)

	dsa, err = ApplyTopicUpdates(syl, "DSA", []TopicUpdate{{Topic: "Trees", Status: "not-started"}}, later)
	require.NoError(t, err)
	assert.Equal(t, 1, dsa.CompletedTopics)
	trees, _ = dsa.FindTopic("Trees")
	assert.Nil(t, trees.CompletedDate)
	assert.Equal(t, model.TopicNotStarted, trees.Status)
}

func TestApplyTopicUpdatesRejectsWholeBatch(t *testing.T) {
	syl, err := BuildSyllabus(sampleSyllabusRequest(), 1, time.Now())
	require.NoError(t, err)

	cases := []struct {
		name    string
		subject string
		updates []TopicUpdate
	}{
		{"unknown subject", "OS", []TopicUpdate{{Topic: "Arrays", Status: "completed"}}},
		{"unknown topic", "DSA", []TopicUpdate{{Topic: "Trees", Status: "completed"}, {Topic: "Heaps", Status: "completed"}}},
		{"bad status", "DSA", []TopicUpdate{{Topic: "Trees", Status: "completed"}, {Topic: "Graphs", Status: "done"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ApplyTopicUpdates(syl, tc.subject, tc.updates, time.Now())
			assert.Equal(t, 400, util.StatusOf(err))
			dsa, _ := syl.FindSubject("DSA")
			trees, _ := dsa.FindTopic("Trees")
			assert.Equal(t, model.TopicNotStarted, trees.Status)
		})
	}
}

func newSyllabusService(t *testing.T) (*SyllabusService, *events.RecordingPublisher, *fixture) {
	f := newFixture(t)
	rec := events.NewRecordingPublisher()
	return NewSyllabusService(repository.NewSyllabusRepository(f.db), f.users, rec), rec, f
}

func TestSyllabusLifecycle(t *testing.T) {
	svc, rec, f := newSyllabusService(t)
	prof := testutil.CreateUser(t, f.db, "prof", model.Professor)

	syl, err := svc.Create(prof.ID, sampleSyllabusRequest())
	require.NoError(t, err)

	_, err = svc.Create(prof.ID, sampleSyllabusRequest())
	assert.ErrorIs(t, err, util.ErrSyllabusExists)

	updated, err := svc.UpdateTopics(context.Background(), prof.ID, syl.ID, UpdateTopicsRequest{
		SubjectName:  "DSA",
		TopicUpdates: []TopicUpdate{{Topic: "Graphs", Status: "completed"}},
	})
	require.NoError(t, err)
	dsa, _ := updated.FindSubject("DSA")
	assert.Equal(t, 2, dsa.CompletedTopics)
	assert.Len(t, rec.OfType(events.SyllabusTopicUpdated), 1)

	reloaded, err := svc.Get(syl.ID)
	require.NoError(t, err)
	dsa, _ = reloaded.FindSubject("DSA")
	assert.Equal(t, 2, dsa.CompletedTopics)

	_, err = svc.UpdateTopics(context.Background(), prof.ID, 9999, UpdateTopicsRequest{SubjectName: "DSA"})
	assert.ErrorIs(t, err, util.ErrSyllabusNotFound)

	require.NoError(t, svc.Delete(syl.ID))
	_, err = svc.Get(syl.ID)
	assert.ErrorIs(t, err, util.ErrSyllabusNotFound)
}

func TestSyllabusListScopesStudents(t *testing.T) {
	svc, _, f := newSyllabusService(t)
	me := testutil.CreateStudent(t, f.db, "ana", "2022", "C")

	_, err := svc.Create(1, sampleSyllabusRequest())
	require.NoError(t, err)
	other := sampleSyllabusRequest()
	other.Section = "D"
	_, err = svc.Create(1, other)
	require.NoError(t, err)

	list, err := svc.List(util.Identity{UserID: me.ID, Role: model.Student}, SyllabusQuery{Section: "D"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "C", list[0].Section)

	all, err := svc.List(util.Identity{UserID: 1, Role: model.Admin}, SyllabusQuery{Batch: "2022"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeedKeepsProgress(t *testing.T) {
	svc, _, _ := newSyllabusService(t)

	created, updated, err := svc.Seed([]CreateSyllabusRequest{sampleSyllabusRequest()})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Zero(t, updated)

	again := sampleSyllabusRequest()
	again.Subjects[0].Topics = []TopicRequest{{Name: "Arrays"}, {Name: "Trees"}, {Name: "Graphs"}, {Name: "Heaps"}}
	created, updated, err = svc.Seed([]CreateSyllabusRequest{again})
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 1, updated)

	syl, err := svc.Repo.FindByKey(2024, 3, "2022", "C")
	require.NoError(t, err)
	dsa, _ := syl.FindSubject("DSA")
	assert.Equal(t, 4, dsa.TotalTopics)
	assert.Equal(t, 1, dsa.CompletedTopics)
	arrays, _ := dsa.FindTopic("Arrays")
	assert.Equal(t, model.TopicCompleted, arrays.Status)
}
