package engine

import (
	"sort"

	"github.com/Spark-Project-Pulse/backend/models"
)

// TierResolution is the outcome of ranking a reputation value against a
// badge's tiers. Highest is the best tier whose threshold the reputation
// meets (nil below the lowest); Next is the cheapest tier still out of reach
// (nil once the top tier is met).
type TierResolution struct {
	Highest *models.BadgeTier
	Next    *models.BadgeTier
}

// ResolveTier is a pure function over its inputs. Tier thresholds must be
// strictly increasing with tier level; data that violates this fails fast
// with a ConfigError instead of silently misranking.
func ResolveTier(reputation int64, tiers []models.BadgeTier) (TierResolution, error) {
	if len(tiers) == 0 {
		return TierResolution{}, &ConfigError{Reason: "badge has no tiers"}
	}

	sorted := make([]models.BadgeTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TierLevel < sorted[j].TierLevel })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].TierLevel == sorted[i-1].TierLevel {
			return TierResolution{}, &ConfigError{
				BadgeID: sorted[i].BadgeID,
				Reason:  "duplicate tier level",
			}
		}
		if sorted[i].ReputationThreshold <= sorted[i-1].ReputationThreshold {
			return TierResolution{}, &ConfigError{
				BadgeID: sorted[i].BadgeID,
				Reason:  "tier thresholds not strictly increasing with tier level",
			}
		}
	}

	var res TierResolution
	for i := range sorted {
		if sorted[i].ReputationThreshold <= reputation {
			res.Highest = &sorted[i]
		} else {
			res.Next = &sorted[i]
			break
		}
	}
	return res, nil
}
