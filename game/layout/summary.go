package layout

// Summary counts how each item was placed
type Summary struct {
	Total    int `json:"total"`
	Strict   int `json:"strict"`
	Relaxed  int `json:"relaxed"`
	Fallback int `json:"fallback"`
	Unplaced int `json:"unplaced"`
	// SpacingViolations counts placed pairs closer than minSpacing plus their radii
	SpacingViolations int `json:"spacing_violations"`
}

// Summarize reports tier counts and spacing violations for a plan
func Summarize(plan []Placement, minSpacing float64) Summary {
	s := Summary{Total: len(plan)}
	for i, p := range plan {
		switch p.Tier {
		case TierStrict:
			s.Strict++
		case TierRelaxed:
			s.Relaxed++
		case TierFallback:
			s.Fallback++
		default:
			s.Unplaced++
			continue
		}
		for _, q := range plan[i+1:] {
			if q.Placed() && p.Position.Dist(q.Position) < minSpacing+p.Radius+q.Radius {
				s.SpacingViolations++
			}
		}
	}
	return s
}
