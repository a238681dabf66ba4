package dataset

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightsift/sighting-data-service/internal/domain"
)

func makeRecords(shape string, n int) []domain.Sighting {
	out := make([]domain.Sighting, n)
	for i := range out {
		out[i] = domain.Sighting{
			ID:            fmt.Sprintf("%s-%d", shape, i),
			ShapeCategory: shape,
		}
	}
	return out
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestSampler_Sample(t *testing.T) {
	policy := DefaultSamplePolicy()

	t.Run("ceiling enforced with abundant records", func(t *testing.T) {
		records := append(makeRecords("cylinder", 200), makeRecords("light", 3000)...)
		s := NewSampler(policy, testRNG())

		sample, boosted := s.Sample(records)

		assert.Len(t, sample, 1000)
		assert.Equal(t, 50, boosted)
		assert.Equal(t, 50, countShape(sample, "cylinder"))
	})

	t.Run("boosted count is min of cap and available", func(t *testing.T) {
		records := append(makeRecords("cylinder", 7), makeRecords("light", 3000)...)
		s := NewSampler(policy, testRNG())

		sample, boosted := s.Sample(records)

		assert.Len(t, sample, 1000)
		assert.Equal(t, 7, boosted)
		assert.Equal(t, 7, countShape(sample, "cylinder"))
	})

	t.Run("small dataset passes through whole", func(t *testing.T) {
		records := append(makeRecords("cylinder", 3), makeRecords("disk", 10)...)
		s := NewSampler(policy, testRNG())

		sample, boosted := s.Sample(records)

		assert.Len(t, sample, 13)
		assert.Equal(t, 3, boosted)
	})

	t.Run("boosted records beyond the cap compete for nothing", func(t *testing.T) {
		// Cylinders past the cap are cut even when the ceiling has room;
		// only the ordinary pool fills remaining capacity.
		records := append(makeRecords("cylinder", 80), makeRecords("disk", 100)...)
		s := NewSampler(policy, testRNG())

		sample, boosted := s.Sample(records)

		assert.Equal(t, 50, boosted)
		assert.Equal(t, 50, countShape(sample, "cylinder"))
		assert.Len(t, sample, 150)
	})

	t.Run("sample holds distinct source records", func(t *testing.T) {
		records := append(makeRecords("cylinder", 60), makeRecords("oval", 2000)...)
		s := NewSampler(policy, testRNG())

		sample, _ := s.Sample(records)

		seen := make(map[string]bool, len(sample))
		for _, r := range sample {
			require.False(t, seen[r.ID], "duplicate record %s", r.ID)
			seen[r.ID] = true
		}
	})

	t.Run("input slice is not reordered", func(t *testing.T) {
		records := append(makeRecords("cylinder", 5), makeRecords("disk", 20)...)
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}

		s := NewSampler(policy, testRNG())
		s.Sample(records)

		for i, r := range records {
			assert.Equal(t, ids[i], r.ID)
		}
	})

	t.Run("empty input yields empty sample", func(t *testing.T) {
		s := NewSampler(policy, testRNG())
		sample, boosted := s.Sample(nil)
		assert.Empty(t, sample)
		assert.Zero(t, boosted)
	})

	t.Run("custom policy respected", func(t *testing.T) {
		custom := SamplePolicy{Ceiling: 20, BoostShape: "disk", BoostCap: 5}
		records := append(makeRecords("disk", 50), makeRecords("light", 50)...)
		s := NewSampler(custom, testRNG())

		sample, boosted := s.Sample(records)

		assert.Len(t, sample, 20)
		assert.Equal(t, 5, boosted)
		assert.Equal(t, 5, countShape(sample, "disk"))
	})
}

func countShape(records []domain.Sighting, shape string) int {
	n := 0
	for _, r := range records {
		if r.ShapeCategory == shape {
			n++
		}
	}
	return n
}
