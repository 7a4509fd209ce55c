package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Languages whose English names are accepted as input in addition to codes.
var named = []string{
	"en", "es", "fr", "de", "it", "pt", "ja", "ko", "zh", "ru", "ar", "hi",
	"nl", "pl", "sv", "da", "no", "fi", "el", "he", "tr", "cs", "hu", "uk",
}

var (
	fold   = cases.Fold()
	byName map[string]xlang.Base
)

func init() {
	names := display.English.Languages()
	byName = make(map[string]xlang.Base, len(named))
	for _, code := range named {
		base := xlang.MustParseBase(code)
		tag, _ := xlang.Compose(base)
		if name := names.Name(tag); name != "" {
			byName[fold.String(name)] = base
		}
	}
}

func lookup(value string) (xlang.Base, bool) {
	value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
	if value == "" {
		return xlang.Base{}, false
	}
	if base, ok := byName[fold.String(value)]; ok {
		return base, true
	}
	if len(value) != 2 && len(value) != 3 {
		return xlang.Base{}, false
	}
	base, err := xlang.ParseBase(strings.ToLower(value))
	if err != nil {
		return xlang.Base{}, false
	}
	return base, true
}

// ToISO3 converts a language code (ISO 639-1 or either ISO 639-2 form) or an
// English language name to its ISO 639-2 code. Bibliographic codes such as
// "fre" normalize to the terminology form "fra".
func ToISO3(value string) (string, bool) {
	base, ok := lookup(value)
	if !ok {
		return "", false
	}
	code := base.ISO3()
	return code, code != "" && code != "und"
}

// DisplayName returns the English name for a recognized code or name.
// Returns "Unknown" for empty input, or the uppercased input otherwise.
func DisplayName(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "Unknown"
	}
	if base, ok := lookup(trimmed); ok {
		tag, _ := xlang.Compose(base)
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}
