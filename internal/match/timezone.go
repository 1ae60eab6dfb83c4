package match

// tzOffsets maps common timezone abbreviations to their UTC offset in hours.
// The table is intentionally static; timezone fit only needs coarse hour
// distances, not DST-correct conversions.
var tzOffsets = map[string]float64{
	"UTC":  0,
	"GMT":  0,
	"BST":  1,
	"WET":  0,
	"CET":  1,
	"CEST": 2,
	"EET":  2,
	"EEST": 3,
	"MSK":  3,
	"GST":  4,
	"PKT":  5,
	"IST":  5.5,
	"BDT":  6,
	"ICT":  7,
	"SGT":  8,
	"HKT":  8,
	"JST":  9,
	"KST":  9,
	"AEST": 10,
	"AEDT": 11,
	"NZST": 12,
	"NZDT": 13,
	"BRT":  -3,
	"ART":  -3,
	"NST":  -3.5,
	"AST":  -4,
	"EST":  -5,
	"EDT":  -4,
	"CST":  -6,
	"CDT":  -5,
	"MST":  -7,
	"MDT":  -6,
	"PST":  -8,
	"PDT":  -7,
	"AKST": -9,
	"HST":  -10,
	"WAT":  1,
	"EAT":  3,
	"SAST": 2,
}

// Neutral fit when either side has no usable timezone.
const timezoneFitUnknown = 70

// TimezoneFit scores the working-hours overlap between a mission and a
// contributor. Unknown or missing zones on either side yield the neutral 70.
// Otherwise the absolute hour offset between the two zones is bucketed:
// <=2h 100, <=4h 85, <=6h 70, <=9h 50, beyond 30.
func TimezoneFit(missionTZ, contributorTZ string) int {
	if missionTZ == "" || contributorTZ == "" {
		return timezoneFitUnknown
	}
	a, okA := tzOffsets[missionTZ]
	b, okB := tzOffsets[contributorTZ]
	if !okA || !okB {
		return timezoneFitUnknown
	}

	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 2:
		return 100
	case diff <= 4:
		return 85
	case diff <= 6:
		return 70
	case diff <= 9:
		return 50
	default:
		return 30
	}
}
