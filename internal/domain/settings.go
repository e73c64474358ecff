// Package domain contains core domain types for the solver bot.
package domain

// Default user settings applied when a user has no stored record.
const (
	DefaultMethod   = "runge_kutta"
	DefaultRounding = "4"
	DefaultLanguage = "en"
	DefaultHints    = "true"
)

// Methods lists the numerical methods the solver backend accepts,
// in menu order.
var Methods = []string{"euler", "midpoint", "heun", "runge_kutta", "dormand_prince"}

// Roundings lists the selectable rounding precisions. "16" means
// no rounding is applied to displayed values.
var Roundings = []string{"4", "6", "8", "16"}

// Languages lists supported interface languages.
var Languages = []string{"en", "ru", "zh"}

// Settings holds per-user preferences. The store is the source of
// truth; the copy on a Session is a read-through cache refreshed on
// session start and written through on every change.
type Settings struct {
	Method   string `json:"method"`
	Rounding string `json:"rounding"`
	Language string `json:"language"`
	Hints    string `json:"hints"`
}

// DefaultSettings returns the settings applied to new users.
func DefaultSettings() Settings {
	return Settings{
		Method:   DefaultMethod,
		Rounding: DefaultRounding,
		Language: DefaultLanguage,
		Hints:    DefaultHints,
	}
}

// HintsEnabled reports whether prompt hints should be appended.
func (s Settings) HintsEnabled() bool {
	return s.Hints == "true"
}

// Normalize replaces empty fields with defaults so a partially
// populated store record never leaves the session without a value.
func (s Settings) Normalize() Settings {
	if s.Method == "" {
		s.Method = DefaultMethod
	}
	if s.Rounding == "" {
		s.Rounding = DefaultRounding
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.Hints == "" {
		s.Hints = DefaultHints
	}
	return s
}
