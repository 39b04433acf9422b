package export

import (
	"os"
	"strings"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

// localeLayouts maps a locale's language_TERRITORY to a Go date layout.
// Languages without an entry for their territory fall back to the
// language-only key.
var localeLayouts = map[string]string{
	"en_US": "1/2/2006",
	"en_GB": "02/01/2006",
	"de":    "2.1.2006",
	"fr":    "02/01/2006",
	"it":    "02/01/2006",
	"es":    "02/01/2006",
	"nl":    "2-1-2006",
	"pl":    "02.01.2006",
	"ru":    "02.01.2006",
	"ja":    "2006/01/02",
	"zh":    "2006/1/2",
	"sv":    "2006-01-02",
}

// LayoutForLocale returns the date layout for a POSIX locale string such as
// "de_DE.UTF-8". Unknown or C/POSIX locales use ISO 8601.
func LayoutForLocale(locale string) string {
	locale, _, _ = strings.Cut(locale, ".")
	locale, _, _ = strings.Cut(locale, "@")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return model.DateLayout
	}
	if layout, ok := localeLayouts[locale]; ok {
		return layout
	}
	lang, _, _ := strings.Cut(locale, "_")
	if layout, ok := localeLayouts[lang]; ok {
		return layout
	}
	return model.DateLayout
}

// EnvLocale returns the effective LC_TIME locale using the POSIX
// precedence LC_ALL, LC_TIME, LANG.
func EnvLocale() string {
	for _, key := range []string{"LC_ALL", "LC_TIME", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// DateFormatter renders birth dates for display.
type DateFormatter struct {
	Layout string
}

// NewDateFormatter uses override when set, else the environment's locale.
func NewDateFormatter(override string) DateFormatter {
	if override != "" {
		return DateFormatter{Layout: override}
	}
	return DateFormatter{Layout: LayoutForLocale(EnvLocale())}
}

// Format returns "unknown" for the zero date.
func (f DateFormatter) Format(d model.Date) string {
	if d.IsZero() {
		return "unknown"
	}
	layout := f.Layout
	if layout == "" {
		layout = model.DateLayout
	}
	return d.Format(layout)
}
