package gauges

import "fmt"

// Message-count thresholds for chat user tiers
const (
	ActiveMin = 21
	MediumMin = 5
	MediumMax = 20
)

// Tier is a chat activity band
type Tier int

const (
	TierNone Tier = iota
	TierMedium
	TierActive
)

func (t Tier) String() string {
	switch t {
	case TierActive:
		return "active"
	case TierMedium:
		return "medium"
	default:
		return "none"
	}
}

// Classify places a per-user message count into a tier. It applies the
// same bounds as the bucket selector scripts sent to the cluster.
func Classify(count int64) Tier {
	switch {
	case count >= ActiveMin:
		return TierActive
	case count >= MediumMin && count <= MediumMax:
		return TierMedium
	default:
		return TierNone
	}
}

// selectorScript is the bucket_selector script matching the tier. It is
// rendered from the same thresholds as Classify.
func (t Tier) selectorScript() string {
	switch t {
	case TierActive:
		return fmt.Sprintf("params.count >= %d", ActiveMin)
	case TierMedium:
		return fmt.Sprintf("params.count >= %d && params.count <= %d", MediumMin, MediumMax)
	default:
		return "false"
	}
}
