package sheets

import (
	"fmt"
	"strings"
)

// ColumnLetters converts a 0-based column index to A1 letters.
func ColumnLetters(i int) string {
	if i < 0 {
		return ""
	}
	var b []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// TableRange is the header row plus maxRows data rows over maxColumns.
func TableRange(tab string, maxColumns, maxRows int) string {
	return fmt.Sprintf("%s!A1:%s%d", quoteTab(tab), ColumnLetters(maxColumns-1), maxRows+1)
}

// CellRange addresses a single cell; row is 1-based, column 0-based.
func CellRange(tab string, row, column int) string {
	return fmt.Sprintf("%s!%s%d", quoteTab(tab), ColumnLetters(column), row)
}
