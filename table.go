package texd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	tableRowEnd    = ` \\`
	tableHeaderSep = `\hline \hline`
	tableRule      = `\hline`
)

// buildTable converts the raw rows of a csv block into tabular rows and
// closes the tabular and table environments.
//
// Rows have no header and all must have the same number of fields. The first
// row is set apart from the rest by a double rule. firstLine is the source
// line of the first row and is used to position errors.
func buildTable(raw string, firstLine int) ([]string, error) {
	r := csv.NewReader(strings.NewReader(raw))
	r.LazyQuotes = true

	var lines []string
	for i := 0; ; i++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, tableError(err, firstLine)
		}

		lines = append(lines, strings.Join(record, " & ")+tableRowEnd)
		if i == 0 {
			lines = append(lines, tableHeaderSep)
		}
	}

	return append(lines, tableRule, `\end{tabular}`, `\end{table}`), nil
}

func tableError(err error, firstLine int) *ParseError {
	pe := &ParseError{Kind: KindTable, Msg: "malformed csv row", Err: err}

	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		pe.Err = csvErr.Err
		pe.Msg = fmt.Sprintf("malformed csv row %d", csvErr.Line)
		if firstLine > 0 {
			pe.Line = firstLine + csvErr.Line - 1
		}
	}
	return pe
}
