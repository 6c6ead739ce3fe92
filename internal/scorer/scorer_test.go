package scorer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hirestack/interview-backend/internal/model"
)

func intPtr(n int) *int { return &n }

func mcqQuestion(points float64) model.Question {
	return model.Question{
		ID:            uuid.New(),
		QuestionType:  model.QuestionTypeMCQ,
		Prompt:        "Pick one",
		Options:       []string{"A", "B", "C"},
		CorrectAnswer: "B",
		Points:        points,
	}
}

func TestMCQScoring(t *testing.T) {
	q := mcqQuestion(10)
	round := model.Round{ID: uuid.New(), RoundType: model.RoundTypeMCQ}
	now := time.Now()

	tests := []struct {
		name       string
		answer     model.AnswerValue
		wantOK     bool
		wantPoints float64
	}{
		{name: "correct index", answer: model.AnswerValue{SelectedOption: intPtr(1)}, wantOK: true, wantPoints: 10},
		{name: "wrong index", answer: model.AnswerValue{SelectedOption: intPtr(0)}, wantOK: false, wantPoints: 0},
		{name: "unanswered", answer: model.AnswerValue{}, wantOK: false, wantPoints: 0},
		{name: "index out of range", answer: model.AnswerValue{SelectedOption: intPtr(7)}, wantOK: false, wantPoints: 0},
		{name: "negative index", answer: model.AnswerValue{SelectedOption: intPtr(-1)}, wantOK: false, wantPoints: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := map[uuid.UUID]model.AnswerValue{}
			if !tt.answer.Empty() {
				answers[q.ID] = tt.answer
			}
			res := Score(round, []model.Question{q}, answers, now.Add(-time.Minute), now)

			assert.Len(t, res.Breakdown, 1)
			assert.Equal(t, tt.wantOK, res.Breakdown[0].Correct)
			assert.Equal(t, tt.wantPoints, res.Breakdown[0].PointsEarned)
		})
	}
}

func TestAggregateMath(t *testing.T) {
	round := model.Round{ID: uuid.New(), RoundType: model.RoundTypeMCQ}
	q1, q2, q3 := mcqQuestion(10), mcqQuestion(10), mcqQuestion(10)
	now := time.Now()

	answers := map[uuid.UUID]model.AnswerValue{
		q1.ID: {SelectedOption: intPtr(1)}, // correct
		q2.ID: {SelectedOption: intPtr(1)}, // correct
		q3.ID: {SelectedOption: intPtr(0)}, // wrong
	}

	res := Score(round, []model.Question{q1, q2, q3}, answers, now.Add(-10*time.Minute), now)

	assert.Equal(t, 20.0, res.TotalScore)
	assert.Equal(t, 30.0, res.MaxScore)
	assert.InDelta(t, 66.67, res.Percentage, 0.01)
	assert.True(t, res.Passed)
	assert.False(t, res.Provisional)
	assert.Equal(t, 600, res.ElapsedSeconds)
}

func TestAggregateEmptyBank(t *testing.T) {
	round := model.Round{ID: uuid.New(), RoundType: model.RoundTypeMCQ}
	now := time.Now()

	res := Score(round, nil, nil, now, now)

	assert.Zero(t, res.TotalScore)
	assert.Zero(t, res.MaxScore)
	assert.Zero(t, res.Percentage)
	assert.False(t, res.Passed)
}

func TestCodingHeuristic(t *testing.T) {
	q := model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeCoding,
		Points:       10,
	}
	round := model.Round{ID: uuid.New(), RoundType: model.RoundTypeCoding}
	now := time.Now()

	tests := []struct {
		name       string
		text       string
		wantPoints float64
		wantOK     bool
	}{
		{
			name:       "all three markers",
			text:       "function sum(a, b) { if (a > b) { return a; } return b; }",
			wantPoints: 10,
			wantOK:     true,
		},
		{
			name:       "arrow and return only",
			text:       "const f = (x) => { return x * 2 }",
			wantPoints: 6, // floor(0.6 * 10)
			wantOK:     true,
		},
		{
			name:       "control flow only",
			text:       "for (let i = 0; i < n; i++) { total += i }",
			wantPoints: 4,
			wantOK:     false,
		},
		{
			name:       "prose answer",
			text:       "I would use a hash map here",
			wantPoints: 0,
			wantOK:     false,
		},
		{
			name:       "empty answer",
			text:       "",
			wantPoints: 0,
			wantOK:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := map[uuid.UUID]model.AnswerValue{}
			if tt.text != "" {
				answers[q.ID] = model.AnswerValue{Text: tt.text}
			}
			res := Score(round, []model.Question{q}, answers, now, now)

			qr := res.Breakdown[0]
			assert.Equal(t, tt.wantPoints, qr.PointsEarned)
			assert.Equal(t, tt.wantOK, qr.Correct)
			assert.True(t, qr.Provisional)
		})
	}
}

func TestProjectAnswerRecordedWithoutVerdict(t *testing.T) {
	q := model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeProject,
		Points:       100,
	}
	round := model.Round{ID: uuid.New(), RoundType: model.RoundTypeProject}
	now := time.Now()

	answers := map[uuid.UUID]model.AnswerValue{
		q.ID: {RepoURL: "https://github.com/candidate/app", LiveURL: "https://app.example.com"},
	}
	res := Score(round, []model.Question{q}, answers, now, now)

	qr := res.Breakdown[0]
	assert.Equal(t, "https://github.com/candidate/app", qr.Answer.RepoURL)
	assert.False(t, qr.Correct)
	assert.Zero(t, qr.PointsEarned)
	assert.False(t, qr.Provisional)
}
