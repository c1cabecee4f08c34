package diagnosis

import (
	"strings"

	"golang.org/x/text/language"
)

// Language selects which advisory text variant is returned.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
)

// supportedLanguages is ordered like the matcher's tag list; English comes first
// so it is the default for anything the matcher cannot place.
var supportedLanguages = []Language{English, Hindi}

var languageMatcher = language.NewMatcher([]language.Tag{language.English, language.Hindi})

// ParseLanguage maps a language code, BCP 47 tag or Accept-Language value onto a
// supported language. A language is chosen only when its base language was
// requested; related languages such as Marathi do not select Hindi. Unknown or
// empty input resolves to English.
func ParseLanguage(s string) Language {
	s = strings.TrimSpace(s)
	if s == "" {
		return English
	}
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, conf := languageMatcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(supportedLanguages) {
		return English
	}
	lang := supportedLanguages[idx]
	if !requestsBase(tags, lang) {
		return English
	}
	return lang
}

func requestsBase(tags []language.Tag, lang Language) bool {
	for _, t := range tags {
		if base, _ := t.Base(); base.String() == string(lang) {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}
