package activity

// Deduplicate returns the records of batch whose ID is not in existing,
// keeping their relative order. It does not modify batch.
func Deduplicate(batch []Record, existing IDSet) []Record {
	out := make([]Record, 0, len(batch))
	for _, r := range batch {
		if existing.Has(r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out
}
