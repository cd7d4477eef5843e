package world

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// RNGFactory produces deterministic RNG instances for world subsystems.
type RNGFactory func(rootSeed, label string) *rand.Rand

func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// randInt returns an integer in [min, max].
func randInt(rng *rand.Rand, min, max float64) float64 {
	lo, hi := math.Ceil(min), math.Floor(max)
	if hi <= lo {
		return lo
	}
	return lo + float64(rng.Int63n(int64(hi-lo)+1))
}

func randFloat(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

func pick(rng *rand.Rand, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[rng.Intn(len(values))]
}

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomString(rng *rand.Rand, length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = idAlphabet[rng.Intn(len(idAlphabet))]
	}
	return string(buf)
}
