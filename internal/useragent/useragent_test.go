package useragent

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickReturnsKnownAgent(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	all := All()
	for i := 0; i < 50; i++ {
		assert.True(t, slices.Contains(all, Pick(r)))
	}
}

func TestPickCoversList(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	seen := map[string]bool{}
	for i := 0; i < 2000; i++ {
		seen[Pick(r)] = true
	}
	assert.Len(t, seen, len(agents))
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0] = "mutated"
	assert.NotEqual(t, "mutated", agents[0])
}
