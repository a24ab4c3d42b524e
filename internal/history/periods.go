package history

import "time"

// Periods returns the first day of each of the last n months, newest
// first, starting with the current month. Month arithmetic is done by
// hand so a January start rolls into the previous year's December
// instead of whatever AddDate normalization would produce.
func Periods(months int, today time.Time) []time.Time {
	if months <= 0 {
		return nil
	}

	year, month := today.Year(), int(today.Month())
	out := make([]time.Time, 0, months)
	for i := 0; i < months; i++ {
		out = append(out, time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
		month--
		if month <= 0 {
			month += 12
			year--
		}
	}
	return out
}
