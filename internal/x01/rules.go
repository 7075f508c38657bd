package x01

const (
	MaxVisit       = 180
	MaxDoubleOut   = 170
	minDoubleScore = 2
)

// Three-dart totals below the maximum that no combination of darts can produce.
var impossibleVisits = map[int]bool{
	179: true, 178: true, 176: true, 175: true, 173: true,
	172: true, 169: true, 166: true, 163: true,
}

// Remaining scores of 170 or less that cannot be finished on a double in three darts.
var bogeyFinishes = map[int]bool{
	169: true, 168: true, 166: true, 165: true,
	163: true, 162: true, 159: true,
}

// ValidVisit reports whether input is a total three darts can score.
func ValidVisit(input int) bool {
	return input >= 0 && input <= MaxVisit && !impossibleVisits[input]
}

// CanCheckout reports whether remaining can be finished in one visit under settings.
func CanCheckout(settings Settings, remaining int) bool {
	if !settings.DoubleOut {
		return remaining > 0 && remaining <= MaxVisit && !impossibleVisits[remaining]
	}
	return remaining >= minDoubleScore && remaining <= MaxDoubleOut && !bogeyFinishes[remaining]
}

// Evaluate scores a visit of input against remaining. A bust leaves the remaining score unchanged.
func Evaluate(settings Settings, remaining, input int) (gameScore int, bust bool, err error) {
	if !ValidVisit(input) {
		return remaining, false, invalidThrow("visit of %d is not possible", input)
	}
	if remaining < 0 {
		return remaining, false, invalidThrow("remaining score %d is negative", remaining)
	}

	result := remaining - input
	switch {
	case result < 0:
		return remaining, true, nil
	case settings.DoubleOut && result == 1:
		return remaining, true, nil
	case result == 0 && !CanCheckout(settings, remaining):
		return remaining, true, nil
	}
	return result, false, nil
}
