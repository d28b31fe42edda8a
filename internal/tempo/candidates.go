package tempo

// tempoCandidates converts inter-beat intervals into BPM candidates.
//
// For every consecutive beat pair the base tempo 60/interval is expanded
// through the subdivision ratios, keeping only candidates inside the
// configured [MinBPM, MaxBPM] range. A single interval contributes between
// zero and len(subdivisionRatios) candidates. Fewer than two beats yields
// no candidates.
func (a *Analyzer) tempoCandidates(beats []float64) []float64 {
	if len(beats) < 2 {
		return nil
	}

	candidates := make([]float64, 0, (len(beats)-1)*len(subdivisionRatios))
	for i := 1; i < len(beats); i++ {
		interval := beats[i] - beats[i-1]
		if interval <= 0 {
			continue
		}
		base := 60.0 / interval
		for _, ratio := range subdivisionRatios {
			if bpm := base * ratio; bpm >= a.cfg.MinBPM && bpm <= a.cfg.MaxBPM {
				candidates = append(candidates, bpm)
			}
		}
	}
	return candidates
}
