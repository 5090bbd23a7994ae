package engine

import (
	"errors"
	"testing"

	"github.com/Spark-Project-Pulse/backend/models"
)

func tiersAt(thresholds ...int64) []models.BadgeTier {
	out := make([]models.BadgeTier, len(thresholds))
	for i, th := range thresholds {
		out[i] = models.BadgeTier{ID: uint(i + 1), TierLevel: uint(i + 1), ReputationThreshold: th}
	}
	return out
}

func TestResolveTierBelowLowest(t *testing.T) {
	res, err := ResolveTier(0, tiersAt(10, 50, 200))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Highest != nil {
		t.Fatalf("highest = tier@%d, want none", res.Highest.ReputationThreshold)
	}
	if res.Next == nil || res.Next.ReputationThreshold != 10 {
		t.Fatalf("next = %+v, want tier@10", res.Next)
	}
}

func TestResolveTierMidRange(t *testing.T) {
	res, err := ResolveTier(75, tiersAt(10, 50, 200))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Highest == nil || res.Highest.ReputationThreshold != 50 {
		t.Fatalf("highest = %+v, want tier@50", res.Highest)
	}
	if res.Next == nil || res.Next.ReputationThreshold != 200 {
		t.Fatalf("next = %+v, want tier@200", res.Next)
	}
}

func TestResolveTierExactThreshold(t *testing.T) {
	res, err := ResolveTier(50, tiersAt(10, 50, 200))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Highest == nil || res.Highest.ReputationThreshold != 50 {
		t.Fatalf("highest = %+v, want tier@50 (threshold is inclusive)", res.Highest)
	}
}

func TestResolveTierMaxedOut(t *testing.T) {
	res, err := ResolveTier(500, tiersAt(10, 50, 200))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Highest == nil || res.Highest.ReputationThreshold != 200 {
		t.Fatalf("highest = %+v, want tier@200", res.Highest)
	}
	if res.Next != nil {
		t.Fatalf("next = tier@%d, want none when maxed", res.Next.ReputationThreshold)
	}
}

// Increasing reputation never decreases the resolved tier level.
func TestResolveTierMonotonic(t *testing.T) {
	tiers := tiersAt(10, 50, 200)
	prev := uint(0)
	for rep := int64(0); rep <= 250; rep += 5 {
		res, err := ResolveTier(rep, tiers)
		if err != nil {
			t.Fatalf("resolve(%d): %v", rep, err)
		}
		level := uint(0)
		if res.Highest != nil {
			level = res.Highest.TierLevel
		}
		if level < prev {
			t.Fatalf("tier level regressed from %d to %d at reputation %d", prev, level, rep)
		}
		prev = level
	}
}

func TestResolveTierNoTiers(t *testing.T) {
	var cfgErr *ConfigError
	if _, err := ResolveTier(10, nil); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for empty tiers, got %v", err)
	}
}

// Thresholds that do not strictly increase with tier level are a
// configuration error, never a silent misranking.
func TestResolveTierMisorderedThresholds(t *testing.T) {
	tiers := []models.BadgeTier{
		{ID: 1, TierLevel: 1, ReputationThreshold: 100},
		{ID: 2, TierLevel: 2, ReputationThreshold: 50},
	}
	var cfgErr *ConfigError
	if _, err := ResolveTier(75, tiers); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for misordered thresholds, got %v", err)
	}

	equal := []models.BadgeTier{
		{ID: 1, TierLevel: 1, ReputationThreshold: 50},
		{ID: 2, TierLevel: 2, ReputationThreshold: 50},
	}
	if _, err := ResolveTier(75, equal); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for equal thresholds, got %v", err)
	}
}

func TestResolveTierUnsortedInput(t *testing.T) {
	tiers := []models.BadgeTier{
		{ID: 3, TierLevel: 3, ReputationThreshold: 200},
		{ID: 1, TierLevel: 1, ReputationThreshold: 10},
		{ID: 2, TierLevel: 2, ReputationThreshold: 50},
	}
	res, err := ResolveTier(75, tiers)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Highest == nil || res.Highest.TierLevel != 2 {
		t.Fatalf("highest = %+v, want tier level 2", res.Highest)
	}
}
