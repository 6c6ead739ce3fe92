// Package sampler draws the question subset presented in a session.
package sampler

import (
	"math/rand/v2"

	"github.com/hirestack/interview-backend/internal/model"
)

// Sample returns min(len(bank), target) questions drawn uniformly from the
// bank via a Fisher–Yates shuffle. The input slice is left untouched. A bank
// smaller than the target is returned whole (shuffled), not treated as an
// error. Callers sample exactly once per session and persist the order.
func Sample(bank []model.Question, target int) []model.Question {
	out := append([]model.Question(nil), bank...)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	if target < 0 {
		target = 0
	}
	if target > len(out) {
		target = len(out)
	}
	return out[:target]
}
