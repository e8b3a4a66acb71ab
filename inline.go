package texd

import (
	"strings"
)

const (
	mathToggle  = '$'
	macroMarker = '@'
	alignRowEnd = `\\`
)

// inlineResult is the outcome of scanning one content line
type inlineResult struct {
	// The transformed line
	text string
	// Math mode after the last character of the line
	math bool
}

// scanInline transforms a single content line.
//
// math is the math mode the line starts in; `$` toggles it. Inside math mode,
// `@name a b@` expands to \name{a}{b}. In align mode every = is preceded by
// the & column marker. Returned errors carry the column but no line.
func scanInline(line string, math, align bool) (inlineResult, error) {
	runes := []rune(line)

	var b strings.Builder
	b.Grow(len(line))

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == mathToggle:
			math = !math
			b.WriteRune(c)
		case c == macroMarker && math:
			end, macro, err := scanMacro(runes, i)
			if err != nil {
				return inlineResult{}, err
			}
			b.WriteString(macro)
			i = end
		case c == '=' && align:
			b.WriteString("&=")
		default:
			b.WriteRune(c)
		}
	}

	return inlineResult{text: b.String(), math: math}, nil
}

// scanMacro reads the macro call opened at runes[start] and returns the index
// of its closing marker along with the expanded LaTeX
func scanMacro(runes []rune, start int) (int, string, error) {
	end := start + 1
	for ; end < len(runes) && runes[end] != macroMarker; end++ {
		if runes[end] == mathToggle {
			return 0, "", &ParseError{Kind: KindUnexpectedChar, Char: mathToggle, Column: end + 1}
		}
	}
	if end == len(runes) {
		return 0, "", &ParseError{Kind: KindUnexpectedEOF, Column: start + 1}
	}

	call := string(runes[start+1 : end])
	parts := strings.Split(call, " ")
	if parts[0] == "" {
		return 0, "", &ParseError{
			Kind:   KindUnsupportedIdentifier,
			Ident:  string(macroMarker) + call + string(macroMarker),
			Column: start + 1,
		}
	}

	return end, command(parts[0], parts[1:]), nil
}

// command renders \name{arg1}{arg2}...
func command(name string, args []string) string {
	return `\` + name + braced(args)
}

func braced(args []string) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteString("{" + a + "}")
	}
	return b.String()
}
