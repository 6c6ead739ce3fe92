// Package scorer grades a finished session into an attempt result.
//
// Scoring is pure: persistence and progress advancement are handled by the
// caller. Coding and system-design answers receive a provisional heuristic
// score; the evaluation worker refines those rows asynchronously after the
// result is stored.
package scorer

import (
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/hirestack/interview-backend/internal/model"
)

// Heuristic weights for the provisional free-text score.
const (
	weightFunction = 0.3
	weightControl  = 0.4
	weightReturn   = 0.3
)

var (
	reFunction = regexp.MustCompile(`\bfunction\b|=>|\bfunc\b|\bdef\b|\blambda\b`)
	reControl  = regexp.MustCompile(`\b(if|else|for|while|switch|case)\b`)
	reReturn   = regexp.MustCompile(`\breturn\b`)
)

// Score grades every sampled question and aggregates the attempt outcome.
// Unanswered questions are incorrect, never an error.
func Score(round model.Round, questions []model.Question, answers map[uuid.UUID]model.AnswerValue, startedAt, completedAt time.Time) model.Result {
	breakdown := make([]model.QuestionResult, 0, len(questions))

	var totalScore, maxScore float64
	provisional := false

	for i := range questions {
		q := &questions[i]
		qr := scoreQuestion(q, answers[q.ID])
		maxScore += qr.MaxPoints
		totalScore += qr.PointsEarned
		if qr.Provisional {
			provisional = true
		}
		breakdown = append(breakdown, qr)
	}

	var percentage float64
	if maxScore > 0 {
		percentage = totalScore / maxScore * 100
	}

	// Project rounds carry no automatic verdict: submission records the
	// links and a human review decides out of band, so the threshold never
	// applies to them.
	passed := percentage >= model.PassThresholdPercent
	if round.RoundType == model.RoundTypeProject {
		passed = false
		provisional = true
	}

	return model.Result{
		RoundID:        round.ID,
		CandidateID:    0, // Stamped by the engine before persisting.
		RoundType:      round.RoundType,
		TotalScore:     totalScore,
		MaxScore:       maxScore,
		Percentage:     percentage,
		Passed:         passed,
		Provisional:    provisional,
		Breakdown:      breakdown,
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
		ElapsedSeconds: int(completedAt.Sub(startedAt).Seconds()),
	}
}

func scoreQuestion(q *model.Question, ans model.AnswerValue) model.QuestionResult {
	qr := model.QuestionResult{
		QuestionID:   q.ID,
		QuestionType: q.QuestionType,
		Answer:       ans,
		MaxPoints:    q.Points,
	}

	switch q.QuestionType {
	case model.QuestionTypeMCQ:
		qr.Correct = mcqCorrect(q, ans)
		if qr.Correct {
			qr.PointsEarned = q.Points
		}

	case model.QuestionTypeCoding, model.QuestionTypeSystemDesign:
		qr.PointsEarned = textHeuristicScore(ans.Text, q.Points)
		qr.Correct = qr.PointsEarned > q.Points/2
		qr.Provisional = true

	case model.QuestionTypeProject:
		// Links are recorded as the answer payload with no verdict; project
		// rounds never feed the pass gate.
	}

	return qr
}

// mcqCorrect maps the selected index through the option list and compares the
// option text against the stored correct answer.
func mcqCorrect(q *model.Question, ans model.AnswerValue) bool {
	if ans.SelectedOption == nil {
		return false
	}
	idx := *ans.SelectedOption
	if idx < 0 || idx >= len(q.Options) {
		return false
	}
	return q.Options[idx] == q.CorrectAnswer
}

// textHeuristicScore is the provisional pre-score for free-text answers:
// weighted presence of a function definition, a control-flow keyword and a
// return statement, scaled by the question's point value and floored.
func textHeuristicScore(text string, points float64) float64 {
	if text == "" {
		return 0
	}

	var weight float64
	if reFunction.MatchString(text) {
		weight += weightFunction
	}
	if reControl.MatchString(text) {
		weight += weightControl
	}
	if reReturn.MatchString(text) {
		weight += weightReturn
	}

	return math.Floor(weight * points)
}
