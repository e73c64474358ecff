package render

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NoRounding is the rounding setting that leaves numbers untouched.
const NoRounding = "16"

var numberPattern = regexp.MustCompile(`\d+\.\d+(?:[eE][+-]?\d+)?`)

// FormatSolution prepares the symbolic solution for display. A
// multi-component solution (one expression per component, separated
// by ";" or newlines) is labeled with the component variable names;
// numeric literals are rounded to the configured precision unless
// rounding is disabled.
func FormatSolution(solution string, order int, rounding string) string {
	components := splitComponents(solution)

	for i, comp := range components {
		if order > 1 && len(components) > 1 && !strings.Contains(comp, "=") {
			comp = VariableName(i) + " = " + comp
		}
		components[i] = roundNumbers(comp, rounding)
	}

	return strings.Join(components, "\n")
}

func splitComponents(solution string) []string {
	raw := strings.FieldsFunc(solution, func(r rune) bool {
		return r == ';' || r == '\n'
	})

	components := make([]string, 0, len(raw))
	for _, part := range raw {
		if part = strings.TrimSpace(part); part != "" {
			components = append(components, part)
		}
	}
	if len(components) == 0 {
		components = []string{strings.TrimSpace(solution)}
	}
	return components
}

func roundNumbers(text, rounding string) string {
	if rounding == NoRounding {
		return text
	}
	digits, err := strconv.Atoi(rounding)
	if err != nil || digits <= 0 {
		return text
	}

	scale := math.Pow10(digits)
	return numberPattern.ReplaceAllStringFunc(text, func(literal string) string {
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return literal
		}
		return strconv.FormatFloat(math.Round(v*scale)/scale, 'f', -1, 64)
	})
}
