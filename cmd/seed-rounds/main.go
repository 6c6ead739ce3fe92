package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hirestack/interview-backend/internal/config"
	"github.com/hirestack/interview-backend/internal/database"
	"github.com/hirestack/interview-backend/internal/logger"
	"github.com/hirestack/interview-backend/internal/model"
	"github.com/hirestack/interview-backend/internal/repository"
	"github.com/hirestack/interview-backend/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	roundRepo := repository.NewRoundRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	fmt.Println("=== Seeding Backend Engineering Domain ===")

	if err := settingRepo.Upsert(ctx, model.SettingFreezingPeriodDays, fmt.Sprint(cfg.FreezingPeriodDays)); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed freezing period setting")
	}

	domainName := "Backend Engineering"
	var domainID uuid.UUID

	// Reuse the domain if a previous seed already created its first round.
	err = pool.QueryRow(ctx,
		"SELECT domain_id FROM rounds WHERE name = $1 AND sequence = 1 LIMIT 1",
		domainName+" Screening",
	).Scan(&domainID)
	if err != nil {
		if err == pgx.ErrNoRows {
			domainID = uuid.New()
			fmt.Printf("New domain ID: %s\n", domainID)
		} else {
			log.Fatal().Err(err).Msg("Failed to check existing domain")
		}
	} else {
		fmt.Printf("Found existing domain ID: %s\n", domainID)
	}

	rounds := []model.Round{
		{
			DomainID:        domainID,
			Name:            domainName + " Screening",
			RoundType:       model.RoundTypeMCQ,
			DurationMinutes: 30,
			QuestionCount:   10,
			Sequence:        1,
		},
		{
			DomainID:        domainID,
			Name:            domainName + " Coding",
			RoundType:       model.RoundTypeCoding,
			DurationMinutes: 90,
			QuestionCount:   2,
			Sequence:        2,
		},
		{
			DomainID:        domainID,
			Name:            domainName + " System Design",
			RoundType:       model.RoundTypeSystemDesign,
			DurationMinutes: 60,
			QuestionCount:   1,
			Sequence:        3,
		},
		{
			DomainID:        domainID,
			Name:            domainName + " Take-Home Project",
			RoundType:       model.RoundTypeProject,
			DurationMinutes: 480,
			QuestionCount:   1,
			Sequence:        4,
		},
	}

	successCount := 0
	for i := range rounds {
		rd := &rounds[i]
		if err := roundRepo.Create(ctx, rd); err != nil {
			fmt.Printf("Error creating round %q: %v\n", rd.Name, err)
			continue
		}
		successCount++
		fmt.Printf("Created round %q (%s)\n", rd.Name, rd.ID)

		created, err := seedQuestions(ctx, questionRepo, rd)
		if err != nil {
			fmt.Printf("Error seeding questions for %q: %v\n", rd.Name, err)
			continue
		}
		fmt.Printf("  Added %d questions\n", created)
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d rounds.\n", successCount, len(rounds))

	// Dev convenience: a ready-to-use token for manual testing.
	token, err := service.NewTokenService(cfg).GenerateCandidateToken(1)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate dev token")
	}
	fmt.Printf("\nDev candidate token (candidate_id=1):\n%s\n", token)
}

func seedQuestions(ctx context.Context, repo *repository.QuestionRepository, rd *model.Round) (int, error) {
	var questions []model.Question

	switch rd.RoundType {
	case model.RoundTypeMCQ:
		questions = mcqBank(rd.ID)
	case model.RoundTypeCoding:
		questions = codingBank(rd.ID)
	case model.RoundTypeSystemDesign:
		questions = []model.Question{
			{
				RoundID:      rd.ID,
				QuestionType: model.QuestionTypeSystemDesign,
				Prompt:       "Design a URL shortener that serves 10k redirects per second. Describe the data model, the read path, and how you would handle hot keys.",
				Points:       100,
				Description:  "Focus on the storage layout and the caching strategy. Pseudocode is fine.",
			},
			{
				RoundID:      rd.ID,
				QuestionType: model.QuestionTypeSystemDesign,
				Prompt:       "Design a rate limiter shared across 20 API servers. Compare a fixed-window and a sliding-window approach and pick one.",
				Points:       100,
				Description:  "Assume Redis is available. Sketch the key layout and the check-and-increment logic.",
			},
		}
	case model.RoundTypeProject:
		questions = []model.Question{
			{
				RoundID:      rd.ID,
				QuestionType: model.QuestionTypeProject,
				Prompt:       "Build a small REST service that ingests CSV order files and exposes per-customer spend totals. Submit a repository link.",
				Points:       100,
				Description:  "Reviewed manually. Include a README with setup instructions and at least one test.",
			},
		}
	}

	created := 0
	for i := range questions {
		if err := repo.Create(ctx, &questions[i]); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func mcqBank(roundID uuid.UUID) []model.Question {
	type entry struct {
		prompt  string
		options []string
		correct string
	}
	entries := []entry{
		{"Which HTTP status code indicates that a resource was created?", []string{"200", "201", "204", "301"}, "201"},
		{"What does an SQL index primarily speed up?", []string{"Inserts", "Reads", "Deletes", "Schema changes"}, "Reads"},
		{"Which isolation level prevents dirty reads but allows non-repeatable reads?", []string{"Read Uncommitted", "Read Committed", "Repeatable Read", "Serializable"}, "Read Committed"},
		{"What is the time complexity of a hash map lookup on average?", []string{"O(1)", "O(log n)", "O(n)", "O(n log n)"}, "O(1)"},
		{"Which header carries a bearer token in an HTTP request?", []string{"Cookie", "Authorization", "X-Token", "Accept"}, "Authorization"},
		{"In a message queue, what does at-least-once delivery imply?", []string{"No duplicates", "Possible duplicates", "Guaranteed ordering", "Exactly one consumer"}, "Possible duplicates"},
		{"Which TCP state does a server socket wait in for incoming connections?", []string{"ESTABLISHED", "LISTEN", "SYN_SENT", "TIME_WAIT"}, "LISTEN"},
		{"What does idempotency mean for an API endpoint?", []string{"It requires authentication", "Repeating the call has the same effect", "It never fails", "It caches responses"}, "Repeating the call has the same effect"},
		{"Which data structure backs a typical LRU cache?", []string{"Array", "Hash map with doubly linked list", "Binary heap", "Trie"}, "Hash map with doubly linked list"},
		{"What does a database transaction's 'A' in ACID stand for?", []string{"Availability", "Atomicity", "Authorization", "Aggregation"}, "Atomicity"},
		{"Which Redis command sets a key only when it does not exist?", []string{"SET", "SETNX", "GETSET", "APPEND"}, "SETNX"},
		{"What is the main advantage of connection pooling?", []string{"Stronger encryption", "Reduced connection setup overhead", "Automatic retries", "Schema validation"}, "Reduced connection setup overhead"},
		{"In REST, which method should a partial update use?", []string{"GET", "PUT", "PATCH", "HEAD"}, "PATCH"},
		{"Which consistency model do most DNS caches provide?", []string{"Strong", "Eventual", "Linearizable", "Causal"}, "Eventual"},
		{"What does a 429 response code signal?", []string{"Server error", "Too many requests", "Unauthorized", "Payload too large"}, "Too many requests"},
	}

	questions := make([]model.Question, 0, len(entries))
	for _, e := range entries {
		questions = append(questions, model.Question{
			RoundID:       roundID,
			QuestionType:  model.QuestionTypeMCQ,
			Prompt:        e.prompt,
			Options:       e.options,
			CorrectAnswer: e.correct,
			Points:        10,
		})
	}
	return questions
}

func codingBank(roundID uuid.UUID) []model.Question {
	return []model.Question{
		{
			RoundID:      roundID,
			QuestionType: model.QuestionTypeCoding,
			Prompt:       "Implement a function that merges two sorted integer slices into one sorted slice without using the standard sort package.",
			Points:       50,
			StarterCode:  "func merge(a, b []int) []int {\n\t// TODO\n}\n",
			Description:  "Aim for O(len(a)+len(b)). Handle empty inputs.",
		},
		{
			RoundID:      roundID,
			QuestionType: model.QuestionTypeCoding,
			Prompt:       "Implement a token bucket rate limiter with Allow() returning whether a request may proceed.",
			Points:       50,
			StarterCode:  "type Bucket struct {\n\t// TODO\n}\n\nfunc (b *Bucket) Allow() bool {\n\t// TODO\n}\n",
			Description:  "Refill based on elapsed time. Concurrency safety is a plus.",
		},
		{
			RoundID:      roundID,
			QuestionType: model.QuestionTypeCoding,
			Prompt:       "Given a log file where each line is '<timestamp> <user_id> <path>', write a function that returns the top 3 most requested paths.",
			Points:       50,
			StarterCode:  "func topPaths(lines []string) []string {\n\t// TODO\n}\n",
			Description:  "Break ties alphabetically.",
		},
	}
}
