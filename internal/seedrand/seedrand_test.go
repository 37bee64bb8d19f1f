package seedrand

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFractionDeterministic(t *testing.T) {
	seeds := []string{"", "metaculus-1", "metaculus-2", "polymarket-0xabc"}
	for _, seed := range seeds {
		first := Fraction(seed)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Fraction(seed), "seed %q", seed)
		}
	}
}

func TestFractionInHalfOpenUnitInterval(t *testing.T) {
	for i := 0; i < 10000; i++ {
		f := Fraction(fmt.Sprintf("metaculus-%d", i))
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
}

func TestFractionSpreadsAcrossSeeds(t *testing.T) {
	seen := make(map[float64]struct{})
	for i := 0; i < 1000; i++ {
		seen[Fraction(fmt.Sprintf("metaculus-%d", i))] = struct{}{}
	}
	// Collisions would point at a broken mixing step.
	assert.Greater(t, len(seen), 990)
}
