package utils

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// NewRand создает локальный генератор. seed == 0 означает "случайный" (от времени).
func NewRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}

// StringToSeed превращает строку (ID игрока, имя бота) в стабильный сид.
func StringToSeed(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

// SampleIndices возвращает k различных индексов из [0, n) в случайном порядке
// (выборка без возвращения). k обрезается до n.
func SampleIndices(rng *rand.Rand, n, k int) []int {
	if k <= 0 || n <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	return rng.Perm(n)[:k]
}

// Sample возвращает k различных элементов items без возвращения.
func Sample[T any](rng *rand.Rand, items []T, k int) []T {
	idx := SampleIndices(rng, len(items), k)
	out := make([]T, 0, len(idx))
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out
}

// Percent возвращает floor(n * percent / 100) без плавающей точки.
func Percent(n, percent int) int {
	if n <= 0 || percent <= 0 {
		return 0
	}
	return n * percent / 100
}
