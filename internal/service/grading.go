package service

import (
	"fmt"
	"math"

	"lms_backend/internal/model"
	"lms_backend/internal/util"
)

// GradeResult 一次作答的评分结果
type GradeResult struct {
	Results        []model.QuestionResult
	Score          int
	MaxScore       int
	CorrectAnswers int
	TotalQuestions int
	Percentage     int
	Status         model.AttemptStatus
}

// NormalizeAnswers 末尾缺失的答案补 Unanswered，选项下标越界则报错
func NormalizeAnswers(quiz *model.Quiz, answers []int) ([]int, error) {
	if len(answers) > len(quiz.Questions) {
		return nil, util.FieldError("answers",
			fmt.Sprintf("expected at most %d answers, got %d", len(quiz.Questions), len(answers)))
	}

	out := make([]int, len(quiz.Questions))
	for i := range out {
		out[i] = model.Unanswered
	}
	for i, a := range answers {
		if a == model.Unanswered {
			continue
		}
		if a < 0 || a >= len(quiz.Questions[i].Options) {
			return nil, util.FieldError(fmt.Sprintf("answers[%d]", i),
				fmt.Sprintf("must be -1 or an option index below %d", len(quiz.Questions[i].Options)))
		}
		out[i] = a
	}
	return out, nil
}

// GradeAttempt 按标准答案评分，下标完全一致才得分，百分比按分值加权
func GradeAttempt(quiz *model.Quiz, answers []int) (*GradeResult, error) {
	normalized, err := NormalizeAnswers(quiz, answers)
	if err != nil {
		return nil, err
	}

	res := &GradeResult{
		Results:        make([]model.QuestionResult, len(quiz.Questions)),
		TotalQuestions: len(quiz.Questions),
	}
	for i, q := range quiz.Questions {
		points := q.PointValue()
		correct := normalized[i] == q.CorrectAnswer
		earned := 0
		if correct {
			earned = points
			res.Score += points
			res.CorrectAnswers++
		}
		res.MaxScore += points
		res.Results[i] = model.QuestionResult{
			QuestionIndex:  i,
			SelectedAnswer: normalized[i],
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      correct,
			Points:         points,
			Earned:         earned,
			Topic:          topicOf(q),
			Subtopic:       q.Subtopic,
		}
	}

	res.Percentage = percentOf(res.Score, res.MaxScore)
	res.Status = model.AttemptFail
	if res.Percentage >= quiz.PassPercentage {
		res.Status = model.AttemptPass
	}
	return res, nil
}

func percentOf(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

const generalTopic = "General"

func topicOf(q model.QuizQuestion) string {
	if q.Topic == "" {
		return generalTopic
	}
	return q.Topic
}
