package dataset

import (
	"math/rand"
	"time"

	"github.com/nightsift/sighting-data-service/internal/domain"
)

// SamplePolicy bounds the canonical set so every view's render cost stays
// predictable, while forcing a rare emphasized category to stay visible in
// the sample. All three knobs are configuration, not behavior.
type SamplePolicy struct {
	Ceiling    int    // overall cap on the canonical set
	BoostShape string // category forced into the sample ahead of the draw
	BoostCap   int    // at most this many boosted records are forced in
}

// DefaultSamplePolicy matches the dashboard defaults: 1000 records total,
// up to 50 cylinders boosted.
func DefaultSamplePolicy() SamplePolicy {
	return SamplePolicy{Ceiling: 1000, BoostShape: "cylinder", BoostCap: 50}
}

// Sampler draws a bounded working set from the accepted records.
type Sampler struct {
	policy SamplePolicy
	rng    *rand.Rand
}

// NewSampler creates a Sampler. Pass a nil rng to use a time-seeded one;
// tests inject a fixed seed for reproducible draws.
func NewSampler(policy SamplePolicy, rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{policy: policy, rng: rng}
}

// Sample partitions records into the boosted category and the rest, shuffles
// both independently, takes up to BoostCap boosted records first, fills the
// remaining capacity up to Ceiling from the rest, and shuffles the combined
// result so the two-stage construction leaves no ordering artifact. Returns
// the sample and the number of boosted records forced in.
//
// The input slice is never reordered or mutated.
func (s *Sampler) Sample(records []domain.Sighting) ([]domain.Sighting, int) {
	var boosted, ordinary []domain.Sighting
	for _, r := range records {
		if r.ShapeCategory == s.policy.BoostShape {
			boosted = append(boosted, r)
		} else {
			ordinary = append(ordinary, r)
		}
	}

	s.shuffle(boosted)
	s.shuffle(ordinary)

	forced := min(s.policy.BoostCap, len(boosted))
	remaining := max(min(s.policy.Ceiling-forced, len(ordinary)), 0)

	sample := make([]domain.Sighting, 0, forced+remaining)
	sample = append(sample, boosted[:forced]...)
	sample = append(sample, ordinary[:remaining]...)
	s.shuffle(sample)

	return sample, forced
}

// shuffle applies an unbiased Fisher-Yates permutation.
func (s *Sampler) shuffle(records []domain.Sighting) {
	s.rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}
