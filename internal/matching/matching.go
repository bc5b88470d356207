// Package matching computes gift-exchange assignments.
//
// An assignment is a single permutation of the participant set with no fixed
// points (a derangement): every participant gives exactly one gift, receives
// exactly one gift, and never draws themselves.
package matching

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
)

// Pair assigns one giver to one receiver.
type Pair struct {
	Giver    string
	Receiver string
}

// Engine produces random assignments. The zero value is not usable; build
// one with NewEngine. Safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns an engine backed by the given source. A nil rng gets a
// time-seeded default. Tests pass a seeded source for reproducibility.
func NewEngine(rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rng: rng}
}

// Assignment returns a derangement over ids as (giver, receiver) pairs.
//
// Callers must supply at least 3 distinct ids; the execution service owns
// that admission check, but the precondition is re-verified here so the
// retry loop below always terminates.
//
// The permutation is drawn uniformly and rejected while it contains a fixed
// point, which keeps the output unbiased across all valid derangements. For
// any N >= 2 a derangement exists, so the loop terminates with probability
// one (the per-attempt acceptance rate converges to 1/e).
func (e *Engine) Assignment(ids []string) ([]Pair, error) {
	if len(ids) < 3 {
		return nil, appErrors.Clone(appErrors.ErrInsufficientParticipants,
			fmt.Sprintf("matching requires at least 3 participants, got %d", len(ids)))
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate participant id %q", id))
		}
		seen[id] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(ids)
	for {
		perm := e.rng.Perm(n)
		if hasFixedPoint(perm) {
			continue
		}

		pairs := make([]Pair, n)
		for i, j := range perm {
			pairs[i] = Pair{Giver: ids[i], Receiver: ids[j]}
		}
		return pairs, nil
	}
}

func hasFixedPoint(perm []int) bool {
	for i, j := range perm {
		if i == j {
			return true
		}
	}
	return false
}
