package analysis

// Clean drops every record whose fields are all missing and returns the
// dataset consumed by the later stages. Surviving rows keep input order;
// their post-drop 0-based position is the row identity used everywhere
// downstream. The column set and order never change.
func Clean(d *Dataset) *Dataset {
	cleaned := &Dataset{
		Columns: d.Columns,
		Rows:    make([][]Cell, 0, len(d.Rows)),
	}
	for _, row := range d.Rows {
		allEmpty := true
		for _, cell := range row {
			if !cell.IsEmpty() {
				allEmpty = false
				break
			}
		}
		if allEmpty {
			continue
		}
		cleaned.Rows = append(cleaned.Rows, row)
	}
	return cleaned
}
