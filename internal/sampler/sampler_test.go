package sampler

import (
	"testing"

	"github.com/google/uuid"

	"github.com/hirestack/interview-backend/internal/model"
)

func makeBank(n int) []model.Question {
	bank := make([]model.Question, n)
	for i := range bank {
		bank[i] = model.Question{ID: uuid.New(), QuestionType: model.QuestionTypeMCQ, Points: 10}
	}
	return bank
}

func TestSampleSize(t *testing.T) {
	tests := []struct {
		name   string
		bank   int
		target int
		want   int
	}{
		{name: "bank larger than target", bank: 40, target: 10, want: 10},
		{name: "bank equals target", bank: 10, target: 10, want: 10},
		{name: "bank smaller than target", bank: 4, target: 10, want: 4},
		{name: "empty bank", bank: 0, target: 10, want: 0},
		{name: "zero target", bank: 10, target: 0, want: 0},
		{name: "negative target", bank: 10, target: -1, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sample(makeBank(tt.bank), tt.target)
			if len(got) != tt.want {
				t.Errorf("Sample() returned %d questions, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSampleDistinctAndFromBank(t *testing.T) {
	bank := makeBank(30)
	inBank := make(map[uuid.UUID]bool, len(bank))
	for _, q := range bank {
		inBank[q.ID] = true
	}

	got := Sample(bank, 12)

	seen := make(map[uuid.UUID]bool, len(got))
	for _, q := range got {
		if !inBank[q.ID] {
			t.Errorf("sampled question %s is not in the bank", q.ID)
		}
		if seen[q.ID] {
			t.Errorf("question %s sampled twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSampleDoesNotMutateBank(t *testing.T) {
	bank := makeBank(20)
	orig := make([]uuid.UUID, len(bank))
	for i, q := range bank {
		orig[i] = q.ID
	}

	Sample(bank, 20)

	for i, q := range bank {
		if q.ID != orig[i] {
			t.Fatalf("input bank mutated at index %d", i)
		}
	}
}
