package domain

// Duration returns the whole-day duration needed to produce totalLength at rate units per day.
// The result is the smallest d with d*rate >= totalLength, so it is always at least one day.
func Duration(totalLength, rate int) (int, error) {
	if rate <= 0 {
		return 0, ErrInvalidRate
	}
	if totalLength <= 0 {
		return 0, ErrInvalidLength
	}
	days := totalLength / rate
	if totalLength%rate != 0 {
		days++
	}
	return days, nil
}
