package utils

import (
	"math/rand"
	"testing"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		n, percent, want int
	}{
		{40, 70, 28},
		{1792, 50, 896},
		{3, 30, 0},
		{10, 30, 3},
		{7, 50, 3},
		{0, 70, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.n, tt.percent); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.n, tt.percent, got, tt.want)
		}
	}
}

func TestSampleIndices_NoRepeats(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	idx := SampleIndices(rng, 100, 60)
	if len(idx) != 60 {
		t.Fatalf("expected 60 indices, got %d", len(idx))
	}
	seen := make(map[int]bool)
	for _, i := range idx {
		if i < 0 || i >= 100 {
			t.Fatalf("index %d out of range", i)
		}
		if seen[i] {
			t.Fatalf("index %d sampled twice", i)
		}
		seen[i] = true
	}

	if got := SampleIndices(rng, 5, 10); len(got) != 5 {
		t.Errorf("k > n should clamp to n, got %d", len(got))
	}
	if got := SampleIndices(rng, 0, 3); got != nil {
		t.Errorf("empty input should return nil, got %v", got)
	}
}

func TestSample_Deterministic(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	first := Sample(rand.New(rand.NewSource(7)), items, 3)
	second := Sample(rand.New(rand.NewSource(7)), items, 3)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed produced different samples: %v vs %v", first, second)
		}
	}
}

func TestStringToSeed(t *testing.T) {
	if StringToSeed("bot-1") != StringToSeed("bot-1") {
		t.Error("seed must be stable")
	}
	if StringToSeed("bot-1") == StringToSeed("bot-2") {
		t.Error("different names should produce different seeds")
	}
}
