// Package calculator holds the pure split and calendar-window math used by
// the entry engine and the reporting queries.
package calculator

// SharePrice returns the per-member slice of a group total. Integer division:
// the remainder is dropped per member while the group ledger still records the
// full amount, so the N shares sum to N*floor(total/N) <= total.
func SharePrice(total int64, memberCount int) int64 {
	if memberCount < 1 {
		memberCount = 1
	}
	return total / int64(memberCount)
}

// ShareQuantity divides a drink quantity across members, never below one so a
// shared bottle still shows up on every member's calendar.
func ShareQuantity(quantity, memberCount int) int {
	if memberCount < 1 {
		memberCount = 1
	}
	q := quantity / memberCount
	if q < 1 {
		q = 1
	}
	return q
}
