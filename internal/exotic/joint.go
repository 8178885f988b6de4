package exotic

import (
	"sort"
	"strings"

	"github.com/yourusername/clever-exotics/internal/models"
)

const (
	jointEpsilon = 1e-10

	trifectaPoolSize   = 6
	superfectaPoolSize = 5
	maxArity           = 4
)

// Combination is an ordered tuple of horse IDs. It is comparable and can be
// used as a map key.
type Combination struct {
	ids [maxArity]string
	n   int
}

// NewCombination builds a combination from up to four IDs.
func NewCombination(ids ...string) Combination {
	var c Combination
	c.n = copy(c.ids[:], ids)
	return c
}

// IDs returns the horse IDs in finishing order.
func (c Combination) IDs() []string {
	out := make([]string, c.n)
	copy(out, c.ids[:c.n])
	return out
}

// Len is the number of positions in the combination.
func (c Combination) Len() int {
	return c.n
}

func (c Combination) String() string {
	return strings.Join(c.ids[:c.n], "-")
}

// JointProbability is one enumerated combination with its probability.
type JointProbability struct {
	Combination Combination
	Probability float64
}

// Engine computes Harville-style finishing-order probabilities.
type Engine struct{}

// NewEngine creates a joint probability engine.
func NewEngine() *Engine {
	return &Engine{}
}

// CandidatePool returns the size horses with the highest win probability.
// Ties keep their input order.
func CandidatePool(horses []models.Horse, size int) []models.Horse {
	pool := make([]models.Horse, len(horses))
	copy(pool, horses)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].WinProbability > pool[j].WinProbability
	})
	if size >= 0 && len(pool) > size {
		pool = pool[:size]
	}
	return pool
}

// Pool returns the horses a bet type enumerates over.
func (e *Engine) Pool(horses []models.Horse, betType models.BetType) ([]models.Horse, error) {
	switch betType {
	case models.BetTypeExacta:
		pool := make([]models.Horse, len(horses))
		copy(pool, horses)
		return pool, nil
	case models.BetTypeTrifecta:
		return CandidatePool(horses, trifectaPoolSize), nil
	case models.BetTypeSuperfecta:
		return CandidatePool(horses, superfectaPoolSize), nil
	}
	return nil, models.ErrInvalidBetType
}

// Enumerate lists every ordered combination of the bet type's pool together
// with its probability. Order is lexicographic over pool positions.
func (e *Engine) Enumerate(horses []models.Horse, betType models.BetType) ([]JointProbability, error) {
	pool, err := e.Pool(horses, betType)
	if err != nil {
		return nil, err
	}

	k := betType.Arity()
	if len(pool) < k {
		return []JointProbability{}, nil
	}

	probs := make([]float64, len(pool))
	for i, h := range pool {
		probs[i] = h.WinProbability
	}

	var score func(perm []int) float64
	if betType == models.BetTypeSuperfecta {
		score = func(perm []int) float64 { return renormalizedHarville(probs, perm) }
	} else {
		score = func(perm []int) float64 { return harville(probs, perm) }
	}

	out := make([]JointProbability, 0, permutationCount(len(pool), k))
	permute(len(pool), k, func(perm []int) {
		ids := make([]string, k)
		for i, idx := range perm {
			ids[i] = pool[idx].ID
		}
		out = append(out, JointProbability{
			Combination: NewCombination(ids...),
			// unnormalized fields can push 1-placed toward zero or below
			Probability: clamp01(score(perm)),
		})
	})
	return out, nil
}

// Joint returns the probability of every ordered combination keyed by combination.
func (e *Engine) Joint(horses []models.Horse, betType models.BetType) (map[Combination]float64, error) {
	entries, err := e.Enumerate(horses, betType)
	if err != nil {
		return nil, err
	}
	out := make(map[Combination]float64, len(entries))
	for _, jp := range entries {
		out[jp.Combination] = jp.Probability
	}
	return out, nil
}

// harville conditions each position on the horses already placed using the
// original win probabilities: p1 * p2/(1-p1) * p3/(1-p1-p2).
func harville(probs []float64, perm []int) float64 {
	p := probs[perm[0]]
	placed := probs[perm[0]]
	for _, idx := range perm[1:] {
		p *= probs[idx] / (1 - placed + jointEpsilon)
		placed += probs[idx]
	}
	return p
}

// renormalizedHarville divides each position by the probability mass still
// unplaced within the pool.
func renormalizedHarville(probs []float64, perm []int) float64 {
	var remaining float64
	for _, v := range probs {
		remaining += v
	}
	p := 1.0
	for _, idx := range perm {
		p *= probs[idx] / (remaining + jointEpsilon)
		remaining -= probs[idx]
	}
	return p
}

// permute calls fn with every k-permutation of [0, n) in lexicographic order.
// The slice passed to fn is reused between calls.
func permute(n, k int, fn func(perm []int)) {
	if k <= 0 || k > n {
		return
	}
	perm := make([]int, k)
	used := make([]bool, n)
	var rec func(depth int)
	rec = func(depth int) {
		if depth == k {
			fn(perm)
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			perm[depth] = i
			rec(depth + 1)
			used[i] = false
		}
	}
	rec(0)
}

func permutationCount(n, k int) int {
	if k > n {
		return 0
	}
	count := 1
	for i := 0; i < k; i++ {
		count *= n - i
	}
	return count
}
