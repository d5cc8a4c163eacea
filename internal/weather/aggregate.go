package weather

// Merge appends incoming to master and keeps only the last occurrence of every
// (city, timestamp) key. Survivors keep their relative order, so a key that is
// refreshed moves to the position of its newest occurrence.
//
// Merge(Merge(m, b), b) equals Merge(m, b).
func Merge(master, incoming []Record) []Record {
	combined := make([]Record, 0, len(master)+len(incoming))
	combined = append(combined, master...)
	combined = append(combined, incoming...)

	last := make(map[string]int, len(combined))
	for i, r := range combined {
		last[r.Key()] = i
	}

	merged := make([]Record, 0, len(last))
	for i, r := range combined {
		if last[r.Key()] == i {
			merged = append(merged, r)
		}
	}
	return merged
}

// SplitByKind partitions records into current and historical slices.
func SplitByKind(records []Record) (current, historical []Record) {
	for _, r := range records {
		if r.Kind == KindHistorical {
			historical = append(historical, r)
		} else {
			current = append(current, r)
		}
	}
	return current, historical
}
