package tempo

// Category maps a BPM value to a rough musical style description.
// Boundaries follow common genre tempo conventions.
func Category(bpm float64) string {
	switch {
	case bpm <= 0:
		return "No tempo detected"
	case bpm >= 200:
		return "Extremely Fast (Electronic Hardcore)"
	case bpm >= 175:
		return "Very Fast (Drum & Bass, Gabber)"
	case bpm >= 150:
		return "Fast (Trance, Hardstyle)"
	case bpm >= 130:
		return "Moderately Fast (House, Techno)"
	case bpm >= 110:
		return "Medium (Pop, Rock, EDM)"
	case bpm >= 90:
		return "Moderately Slow (Hip Hop, R&B)"
	case bpm >= 70:
		return "Slow (Ballads, Reggae)"
	default:
		return "Very Slow (Ambient, Downtempo)"
	}
}
