package domain

// Resolve builds a CanonicalRow from a raw row using the field table.
// For each canonical name the candidates are scanned in declared order and
// the last one present in the row wins, so the highest-priority source sits
// at the end of its candidate list. A canonical name with no candidate
// present is simply absent from the result; downstream stages decide whether
// that matters.
//
// Raw fields that are not canonical pass through only when listed in
// display; everything else is dropped here so later stages never see
// unrequested sensor columns.
func Resolve(row RawRow, table FieldTable, display []string) CanonicalRow {
	out := make(CanonicalRow, len(table)+len(display))

	for canonical, candidates := range table {
		for _, candidate := range candidates {
			if v, ok := row[candidate]; ok {
				out[canonical] = v
			}
		}
	}

	for _, name := range display {
		if _, isCanonical := table[name]; isCanonical {
			continue
		}
		if v, ok := row[name]; ok {
			out[name] = v
		}
	}

	return out
}
