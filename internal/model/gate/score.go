package gate

// Score holds the four readiness dimensions, each in [0,1].
type Score struct {
	Pitch  float64 `json:"pitch"`
	Riddle float64 `json:"riddle"`
	Wit    float64 `json:"wit"`
	Fit    float64 `json:"fit"`
}

// Fixed dimension weights for the scalar readiness value.
const (
	WeightPitch  = 0.4
	WeightRiddle = 0.25
	WeightWit    = 0.2
	WeightFit    = 0.15
)

// Weighted collapses the four dimensions into the scalar readiness value.
func (s Score) Weighted() float64 {
	return s.Pitch*WeightPitch + s.Riddle*WeightRiddle + s.Wit*WeightWit + s.Fit*WeightFit
}

// Merge returns the per-dimension maximum of s and other, so accumulated
// scores are monotone non-decreasing over a conversation.
func (s Score) Merge(other Score) Score {
	return Score{
		Pitch:  max(s.Pitch, other.Pitch),
		Riddle: max(s.Riddle, other.Riddle),
		Wit:    max(s.Wit, other.Wit),
		Fit:    max(s.Fit, other.Fit),
	}
}
