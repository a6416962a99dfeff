package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledPublisherSkipsSilently(t *testing.T) {
	p, err := NewAMQPPublisher("", "lms.events")
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), QuizAttemptGraded, map[string]int{"score": 1}))
	assert.NoError(t, p.Close())
}

func TestRecordingPublisher(t *testing.T) {
	p := NewRecordingPublisher()
	require.NoError(t, p.Publish(context.Background(), QuizAttemptGraded, 1))
	require.NoError(t, p.Publish(context.Background(), UserApproved, 2))
	require.NoError(t, p.Publish(context.Background(), QuizAttemptGraded, 3))

	assert.Len(t, p.Events(), 3)
	graded := p.OfType(QuizAttemptGraded)
	require.Len(t, graded, 2)
	assert.Equal(t, 3, graded[1].Payload)
}
