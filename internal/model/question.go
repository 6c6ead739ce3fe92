package model

import (
	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMCQ          QuestionType = "MCQ"
	QuestionTypeCoding       QuestionType = "CODING"
	QuestionTypeProject      QuestionType = "PROJECT"
	QuestionTypeSystemDesign QuestionType = "SYSTEM_DESIGN"
)

// Question is an immutable question definition owned by the question bank.
// CorrectAnswer holds the correct option text for MCQ questions and is empty
// for types that are not auto-scored against a key.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	RoundID       uuid.UUID    `json:"round_id"`
	QuestionType  QuestionType `json:"question_type"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Points        float64      `json:"points"`
	StarterCode   string       `json:"starter_code,omitempty"`
	Description   string       `json:"description,omitempty"`
}

// QuestionForCandidate is a question stripped of the correct answer,
// safe to send to the candidate.
type QuestionForCandidate struct {
	ID           uuid.UUID    `json:"id"`
	QuestionType QuestionType `json:"question_type"`
	Prompt       string       `json:"prompt"`
	Options      []string     `json:"options,omitempty"`
	Points       float64      `json:"points"`
	StarterCode  string       `json:"starter_code,omitempty"`
	Description  string       `json:"description,omitempty"`
}

// ForCandidate returns the candidate-safe view of the question.
func (q *Question) ForCandidate() QuestionForCandidate {
	return QuestionForCandidate{
		ID:           q.ID,
		QuestionType: q.QuestionType,
		Prompt:       q.Prompt,
		Options:      q.Options,
		Points:       q.Points,
		StarterCode:  q.StarterCode,
		Description:  q.Description,
	}
}

// AnswerValue is a type-dependent answer payload:
// MCQ uses SelectedOption (index into the question's option list),
// Coding and SystemDesign use Text, Project uses RepoURL/LiveURL.
type AnswerValue struct {
	SelectedOption *int   `json:"selected_option,omitempty"`
	Text           string `json:"text,omitempty"`
	RepoURL        string `json:"repo_url,omitempty"`
	LiveURL        string `json:"live_url,omitempty"`
}

// Empty reports whether the answer carries no payload at all.
func (a AnswerValue) Empty() bool {
	return a.SelectedOption == nil && a.Text == "" && a.RepoURL == "" && a.LiveURL == ""
}

// AnswerRequest is the payload for answering a question.
type AnswerRequest struct {
	SelectedOption *int   `json:"selected_option" binding:"omitempty,min=0"`
	Text           string `json:"text" binding:"omitempty,max=65536"`
	RepoURL        string `json:"repo_url" binding:"omitempty,url,max=2048"`
	LiveURL        string `json:"live_url" binding:"omitempty,url,max=2048"`
}

// Value converts the request into the stored answer value.
func (r *AnswerRequest) Value() AnswerValue {
	return AnswerValue{
		SelectedOption: r.SelectedOption,
		Text:           r.Text,
		RepoURL:        r.RepoURL,
		LiveURL:        r.LiveURL,
	}
}
