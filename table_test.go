package texd

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildTable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "no rows",
			raw:  "",
			want: []string{`\hline`, `\end{tabular}`, `\end{table}`},
		},
		{
			name: "single row",
			raw:  "a,b\n",
			want: []string{`a & b \\`, `\hline \hline`, `\hline`, `\end{tabular}`, `\end{table}`},
		},
		{
			name: "quoted field keeps its comma",
			raw:  "\"x, y\",z\n1,2\n",
			want: []string{`x, y & z \\`, `\hline \hline`, `1 & 2 \\`, `\hline`, `\end{tabular}`, `\end{table}`},
		},
		{
			name: "bare quote inside a field",
			raw:  "5\" disk,ok\n",
			want: []string{`5" disk & ok \\`, `\hline \hline`, `\hline`, `\end{tabular}`, `\end{table}`},
		},
		{
			name: "spaces are preserved",
			raw:  " a , b \n",
			want: []string{` a  &  b  \\`, `\hline \hline`, `\hline`, `\end{tabular}`, `\end{table}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildTable(tt.raw, 1)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBuildTableRowCount(t *testing.T) {
	for rows := 1; rows <= 8; rows++ {
		var raw strings.Builder
		for i := 0; i < rows; i++ {
			raw.WriteString("a,b,c\n")
		}

		got, err := buildTable(raw.String(), 1)
		require.NoError(t, err)

		var rowLines, doubleRules, rules int
		for i, line := range got {
			switch line {
			case `a & b & c \\`:
				rowLines++
			case `\hline \hline`:
				doubleRules++
				require.Equal(t, 1, i, "double rule must follow the first row")
			case `\hline`:
				rules++
				require.Equal(t, `\end{tabular}`, got[i+1])
			}
		}

		require.Equal(t, rows, rowLines)
		require.Equal(t, 1, doubleRules)
		require.Equal(t, 1, rules)
	}
}

func TestBuildTableErrors(t *testing.T) {
	_, err := buildTable("a,b\nc,d\ne\n", 10)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindTable, pe.Kind)
	require.Equal(t, 12, pe.Line)
	require.True(t, errors.Is(err, csv.ErrFieldCount))
}
