package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyllabusTopicDecodesLegacyFlag(t *testing.T) {
	var topics []SyllabusTopic
	err := json.Unmarshal([]byte(`[
		{"name":"Sets","isCompleted":true},
		{"name":"Relations","isCompleted":false},
		{"name":"Functions"},
		{"name":"Graphs","status":"in-progress","isCompleted":true}
	]`), &topics)
	require.NoError(t, err)

	assert.Equal(t, TopicCompleted, topics[0].Status)
	assert.Equal(t, TopicNotStarted, topics[1].Status)
	assert.Equal(t, TopicNotStarted, topics[2].Status)
	assert.Equal(t, TopicInProgress, topics[3].Status)
}

func TestSyllabusTopicRejectsUnknownStatus(t *testing.T) {
	var topic SyllabusTopic
	assert.Error(t, json.Unmarshal([]byte(`{"name":"x","status":"done"}`), &topic))
}

func TestSyllabusTopicSetStatus(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	topic := SyllabusTopic{Name: "Trees", Status: TopicNotStarted}

	topic.SetStatus(TopicCompleted, now)
	require.NotNil(t, topic.CompletedDate)
	assert.Equal(t, now, *topic.CompletedDate)

	// 重复标记 completed 保留原完成时间
	topic.SetStatus(TopicCompleted, now.Add(time.Hour))
	assert.Equal(t, now, *topic.CompletedDate)

	topic.SetStatus(TopicNotStarted, now)
	assert.Nil(t, topic.CompletedDate)
	assert.Equal(t, TopicNotStarted, topic.Status)
}

func TestSyllabusSubjectRecount(t *testing.T) {
	sub := SyllabusSubject{
		Name: "DSA",
		Topics: []SyllabusTopic{
			{Name: "a", Status: TopicCompleted},
			{Name: "b", Status: TopicInProgress},
			{Name: "c", Status: TopicCompleted},
		},
	}
	sub.Recount()
	assert.Equal(t, 3, sub.TotalTopics)
	assert.Equal(t, 2, sub.CompletedTopics)

	s := Syllabus{Subjects: []SyllabusSubject{sub, {Name: "OS", Topics: []SyllabusTopic{{Name: "x"}}}}}
	s.RecountAll()
	done, total := s.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 4, total)
}
