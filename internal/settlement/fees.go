package settlement

// FeeTable maps a deal's duration in hours to the platform fee percentage
// charged on items sold under that deal. It is loaded once from
// configuration and passed explicitly to every operation that needs it —
// never read as ambient global state.
type FeeTable map[int]float64

// Percent returns the platform fee percentage for the given deal duration.
// The second return value is false when the table has no entry for it.
func (t FeeTable) Percent(durationHours int) (float64, bool) {
	pct, ok := t[durationHours]
	return pct, ok
}
