// Package i18n loads the localized text bundles used for every
// user-facing message. Bundles are embedded YAML files, one per
// language; English is the fallback for missing languages and keys.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

const fallbackLang = "en"

// legacy method keys found in old stored history records.
var methodAliases = map[string]string{
	"rungeKutta":    "runge_kutta",
	"dormandPrince": "dormand_prince",
}

type locale struct {
	Texts   map[string]string `yaml:"texts"`
	Methods map[string]string `yaml:"numerical_methods"`
}

// Bundle holds all loaded locales.
type Bundle struct {
	locales map[string]locale
}

// Load parses every embedded locale file. It fails when the English
// fallback is absent.
func Load() (*Bundle, error) {
	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}

	locales := make(map[string]locale, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		data, err := localeFS.ReadFile(path.Join("locales", name))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}

		var loc locale
		if err := yaml.Unmarshal(data, &loc); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", name, err)
		}

		lang := strings.TrimSuffix(name, ".yaml")
		locales[lang] = loc
	}

	if _, ok := locales[fallbackLang]; !ok {
		return nil, fmt.Errorf("fallback locale %q missing", fallbackLang)
	}

	return &Bundle{locales: locales}, nil
}

// T returns the text for key in the given language, falling back to
// English, then to the key itself so a missing entry is visible
// rather than silent.
func (b *Bundle) T(lang, key string) string {
	if loc, ok := b.locales[lang]; ok {
		if text, ok := loc.Texts[key]; ok {
			return text
		}
	}
	if text, ok := b.locales[fallbackLang].Texts[key]; ok {
		return text
	}
	return key
}

// Method returns the display name of a numerical method, resolving
// the legacy camel-case keys old history records carry. Unknown
// methods are shown as-is.
func (b *Bundle) Method(lang, method string) string {
	if canonical, ok := methodAliases[method]; ok {
		method = canonical
	}
	if loc, ok := b.locales[lang]; ok {
		if name, ok := loc.Methods[method]; ok {
			return name
		}
	}
	if name, ok := b.locales[fallbackLang].Methods[method]; ok {
		return name
	}
	return method
}

// Prompt composes a wizard prompt: the base text plus, when hints are
// enabled, the italicized hint suffix.
func (b *Bundle) Prompt(lang, key, hintKey string, hints bool) string {
	text := b.T(lang, key)
	if hints {
		text += fmt.Sprintf("<i>\n\n%s %s</i>", b.T(lang, "hints_text"), b.T(lang, hintKey))
	}
	return text
}

// Languages returns the loaded language codes.
func (b *Bundle) Languages() []string {
	langs := make([]string, 0, len(b.locales))
	for lang := range b.locales {
		langs = append(langs, lang)
	}
	return langs
}
