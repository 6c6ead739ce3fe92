package worker

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hirestack/interview-backend/internal/config"
	"github.com/hirestack/interview-backend/internal/model"
	"github.com/hirestack/interview-backend/internal/repository"
)

const (
	EvalBatchSize    = 50
	EvalBatchTimeout = 2 * time.Second
	EvalPollTimeout  = 1 * time.Second
)

// EvaluationWorker consumes the evaluation queue and refines provisional
// free-text scores with a deeper static analysis than the submit-path
// pre-score. The stored aggregate is recomputed inside the same transaction
// as each row update.
type EvaluationWorker struct {
	resultRepo *repository.ResultRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewEvaluationWorker creates a new EvaluationWorker.
func NewEvaluationWorker(resultRepo *repository.ResultRepository, rdb *redis.Client, log zerolog.Logger) *EvaluationWorker {
	return &EvaluationWorker{
		resultRepo: resultRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "evaluation_worker").Logger(),
	}
}

// Start runs the batching worker loop. Call in a goroutine.
func (w *EvaluationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("EvaluationWorker started")

	batch := make([]*model.EvaluationJob, 0, EvalBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= EvalBatchSize || time.Since(lastFlush) >= EvalBatchTimeout) {

			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flush(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, EvalPollTimeout, config.WorkerKey.EvaluateResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job model.EvaluationJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &job)
		}
	}
}

func (w *EvaluationWorker) flush(ctx context.Context, batch []*model.EvaluationJob) {
	for _, job := range batch {
		points := w.evaluate(job)
		correct := points > job.MaxPoints/2

		if err := w.resultRepo.UpdateEvaluation(ctx, job.ResultID, job.QuestionID, points, correct); err != nil {
			w.log.Error().Err(err).
				Str("result_id", job.ResultID.String()).
				Str("question_id", job.QuestionID.String()).
				Msg("Evaluation update failed, requeueing")
			raw, _ := json.Marshal(job)
			w.rdb.RPush(ctx, config.WorkerKey.EvaluateResultsQueue, raw)
			continue
		}

		w.log.Debug().
			Str("result_id", job.ResultID.String()).
			Str("question_id", job.QuestionID.String()).
			Float64("points", points).
			Msg("Provisional score refined")
	}
}

var (
	reEvalFunction = regexp.MustCompile(`\bfunction\b|=>|\bfunc\b|\bdef\b|\blambda\b`)
	reEvalReturn   = regexp.MustCompile(`\breturn\b`)
	reEvalBranch   = regexp.MustCompile(`\b(if|else|switch|case)\b`)
	reEvalLoop     = regexp.MustCompile(`\b(for|while)\b`)
	reEvalDecl     = regexp.MustCompile(`\b(var|let|const)\b|:=`)
)

// evaluate is the deeper pass over a free-text answer. It splits the
// submit-path control weight into branching and looping, credits variable
// declarations and structural balance, and penalizes trivially short
// answers. Same scale as the pre-score: a weight in [0,1] times max points,
// floored.
func (w *EvaluationWorker) evaluate(job *model.EvaluationJob) float64 {
	text := job.Answer.Text
	if job.QuestionType == model.QuestionTypeProject || strings.TrimSpace(text) == "" {
		return 0
	}

	var weight float64
	if reEvalFunction.MatchString(text) {
		weight += 0.25
	}
	if reEvalBranch.MatchString(text) {
		weight += 0.2
	}
	if reEvalLoop.MatchString(text) {
		weight += 0.15
	}
	if reEvalReturn.MatchString(text) {
		weight += 0.2
	}
	if reEvalDecl.MatchString(text) {
		weight += 0.1
	}
	if balancedBraces(text) {
		weight += 0.1
	}

	// A couple of tokens is not an attempt.
	if len(strings.Fields(text)) < 5 {
		weight = weight / 2
	}
	if weight > 1 {
		weight = 1
	}

	return math.Floor(weight * job.MaxPoints)
}

// balancedBraces reports whether curly braces and parentheses pair up.
func balancedBraces(text string) bool {
	curly, paren := 0, 0
	for _, r := range text {
		switch r {
		case '{':
			curly++
		case '}':
			curly--
		case '(':
			paren++
		case ')':
			paren--
		}
		if curly < 0 || paren < 0 {
			return false
		}
	}
	return curly == 0 && paren == 0
}
