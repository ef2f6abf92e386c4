// Package i18n negotiates a response language from Accept-Language and
// localizes the handful of client-facing messages the API emits.
package i18n

import (
	"golang.org/x/text/language"
)

var supported = []language.Tag{
	language.English, // first entry is the fallback
	language.Arabic,
}

var messages = map[language.Tag]map[string]string{
	language.English: {
		"error.not_found": "Resource not found",
		"error.internal":  "An error occurred while processing your request",
	},
	language.Arabic: {
		"error.not_found": "المورد غير موجود",
		"error.internal":  "حدث خطأ أثناء معالجة طلبك",
	},
}

// Catalog matches request languages against the supported set.
type Catalog struct {
	matcher language.Matcher
}

// NewCatalog builds the message catalog with English as fallback.
func NewCatalog() *Catalog {
	return &Catalog{matcher: language.NewMatcher(supported)}
}

// Match negotiates the best supported language for an Accept-Language header.
func (c *Catalog) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	_, index, _ := c.matcher.Match(tags...)
	return supported[index]
}

// T returns the message for key in the given language, falling back to
// English, then to the key itself so a missing entry is visible, not silent.
func (c *Catalog) T(tag language.Tag, key string) string {
	if msg, ok := messages[tag][key]; ok {
		return msg
	}
	if msg, ok := messages[language.English][key]; ok {
		return msg
	}
	return key
}
