package appsheet

import "github.com/appsheetkit/appsheet_sdk_go/internal/actionapi"

// filterRows applies the local part of a Query. Both sides are compared in
// text form so 1 and "1" match. A row lacking TargetColumn never matches.
func filterRows(rows []Row, q Query) []Row {
	if q.Value == nil {
		return rows
	}
	want := actionapi.Text(q.Value)
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if rowMatches(row, q.TargetColumn, want) {
			out = append(out, row)
		}
	}
	return out
}

func rowMatches(row Row, column, want string) bool {
	if column != "" {
		got, ok := row[column]
		return ok && got == want
	}
	for _, got := range row {
		if got == want {
			return true
		}
	}
	return false
}
