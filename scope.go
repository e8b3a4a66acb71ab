package texd

import (
	"log/slog"
	"regexp"
	"strings"
)

// tableScopeName is the decorator name that opens a csv table block
const tableScopeName = "csv"

var mathEnvRegex = regexp.MustCompile(`^(equation|align)\*?$`)

type scopeKind int

const (
	// A plain \begin{name} ... \end{name} environment
	scopeEnvironment scopeKind = iota
	// An equation or align environment, its content starts in math mode
	scopeMath
	// A csv table block, closed by the table builder rather than \end{csv}
	scopeTable
)

// scope is an entry of the scope stack. Fields beyond name are only
// meaningful for the kind they are documented on.
type scope struct {
	kind scopeKind
	name string

	// scopeMath: = becomes &= and rows end with \\
	align bool

	// scopeTable: the next content line is the caption
	captionPending bool
	// scopeTable: index of the \begin{tabular} line in the output
	tabularLine int
	// scopeTable: source line of the first buffered row
	firstRowLine int
	// scopeTable: raw csv rows, one per line
	rows strings.Builder
}

func newEnvironmentScope(name string) *scope {
	if mathEnvRegex.MatchString(name) {
		return &scope{
			kind:  scopeMath,
			name:  name,
			align: strings.HasPrefix(name, "align"),
		}
	}
	return &scope{kind: scopeEnvironment, name: name}
}

func newTableScope(tabularLine int) *scope {
	return &scope{
		kind:           scopeTable,
		name:           tableScopeName,
		captionPending: true,
		tabularLine:    tabularLine,
	}
}

// scopeStack holds the open scopes, innermost last
type scopeStack struct {
	scopes []*scope
}

func (s *scopeStack) push(sc *scope) {
	s.scopes = append(s.scopes, sc)
}

func (s *scopeStack) pop() (*scope, bool) {
	if len(s.scopes) == 0 {
		return nil, false
	}
	sc := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	return sc, true
}

func (s *scopeStack) depth() int {
	return len(s.scopes)
}

// table returns the innermost open table scope, or nil
func (s *scopeStack) table() *scope {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].kind == scopeTable {
			return s.scopes[i]
		}
	}
	return nil
}

// align reports whether the innermost math scope is an align environment
func (s *scopeStack) align() bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].kind == scopeMath {
			return s.scopes[i].align
		}
	}
	return false
}

// shiftTables moves the recorded tabular line of every table scope that sits
// after index by n, after n lines were inserted around index
func (s *scopeStack) shiftTables(index, n int) {
	for _, sc := range s.scopes {
		if sc.kind == scopeTable && sc.tabularLine > index {
			sc.tabularLine += n
		}
	}
}

// closeScopes drains the whole stack, innermost first.
//
// Table scopes hand their rows to the table builder. Math scopes leave math
// mode, and align scopes drop the row terminator of their last row since
// LaTeX would otherwise render an empty trailing row.
func (p *pass) closeScopes() error {
	for {
		sc, ok := p.scopes.pop()
		if !ok {
			return nil
		}

		slog.Debug("closing scope", "name", sc.name, "line", p.line, "depth", p.scopes.depth())

		switch sc.kind {
		case scopeTable:
			rows, err := buildTable(sc.rows.String(), sc.firstRowLine)
			if err != nil {
				return err
			}
			p.emit(rows...)
			continue
		case scopeMath:
			p.math = false
			if sc.align && len(p.out) > 0 {
				last := len(p.out) - 1
				p.out[last] = strings.TrimSuffix(p.out[last], alignRowEnd)
			}
		}

		p.emit(`\end{` + sc.name + `}`)
	}
}
