// Package equation validates raw equation text and converts it into
// the normalized form the solver backend accepts.
package equation

import (
	"strings"
	"unicode"
)

// MaxOrder is the highest derivative order the backend can solve.
const MaxOrder = 4

// identifiers accepted inside equation text. Single letters x and y
// are the independent and dependent variables; the rest are function
// names and constants.
var allowedWords = map[string]struct{}{
	"x": {}, "y": {}, "e": {}, "pi": {},
	"sin": {}, "cos": {}, "tan": {}, "cot": {},
	"exp": {}, "log": {}, "ln": {}, "sqrt": {}, "abs": {},
}

const allowedPunct = "+-*/^()=.,' "

// CheckSymbols scans the text for characters and identifiers outside
// the accepted grammar. It returns false together with the first
// offending token so the user can be told exactly what was rejected.
func CheckSymbols(text string) (bool, string) {
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if unicode.IsLetter(r) {
			start := i
			for i < len(runes) && unicode.IsLetter(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			i--
			if _, ok := allowedWords[strings.ToLower(word)]; !ok {
				return false, word
			}
			continue
		}
		if unicode.IsDigit(r) || strings.ContainsRune(allowedPunct, r) {
			continue
		}
		return false, string(r)
	}
	return true, ""
}

// CheckParentheses reports whether parentheses are balanced and never
// close before opening.
func CheckParentheses(text string) bool {
	depth := 0
	for _, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// Normalize converts accepted equation text into canonical solvable
// form and detects the equation order. Prime notation is rewritten to
// indexed derivative markers (y2 for the second derivative),
// whitespace is stripped and letters are lowercased.
//
// The equation must contain a single "=", with the highest-order
// derivative isolated on the left-hand side. ok is false when the
// text cannot be normalized, including order 0 (no derivative at all)
// and orders above MaxOrder.
func Normalize(text string) (normalized string, order int, ok bool) {
	compact := strings.ToLower(strings.Join(strings.Fields(text), ""))

	parts := strings.Split(compact, "=")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", 0, false
	}

	order = detectOrder(compact)
	if order < 1 || order > MaxOrder {
		return "", 0, false
	}

	// The left side must be exactly the highest derivative.
	if parts[0] != "y"+strings.Repeat("'", order) {
		return "", 0, false
	}

	// Rewrite from the highest order down so y'' is not consumed as
	// two occurrences of y'.
	for n := order; n >= 1; n-- {
		marker := "y" + strings.Repeat("'", n)
		compact = strings.ReplaceAll(compact, marker, derivativeName(n))
	}

	// A prime left behind means prime notation not attached to y.
	if strings.Contains(compact, "'") {
		return "", 0, false
	}

	return compact, order, true
}

// detectOrder returns the highest prime count directly following y.
func detectOrder(compact string) int {
	highest := 0
	for i := 0; i < len(compact); i++ {
		if compact[i] != 'y' {
			continue
		}
		primes := 0
		for j := i + 1; j < len(compact) && compact[j] == '\''; j++ {
			primes++
		}
		if primes > highest {
			highest = primes
		}
	}
	return highest
}

// derivativeName is the canonical marker for the nth derivative of y.
func derivativeName(n int) string {
	if n == 0 {
		return "y"
	}
	return "y" + string(rune('0'+n))
}
