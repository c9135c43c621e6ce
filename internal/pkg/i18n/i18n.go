// Package i18n localizes user facing copy. Messages live in embedded TOML
// files, one per supported language, and fall back to English.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// Supported lists the languages with a message file; the first is the default.
var Supported = []language.Tag{language.English, language.Indonesian}

type Translator struct {
	bundle  *goi18n.Bundle
	matcher language.Matcher
}

func New() (*Translator, error) {
	bundle := goi18n.NewBundle(Supported[0])
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, tag := range Supported {
		file := fmt.Sprintf("locales/active.%s.toml", tag)
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			return nil, fmt.Errorf("i18n: load %s: %w", file, err)
		}
	}

	return &Translator{bundle: bundle, matcher: language.NewMatcher(Supported)}, nil
}

// Match picks the closest supported language for the given Accept-Language
// values or BCP 47 tags. Unparseable input yields the default.
func (t *Translator) Match(prefs ...string) language.Tag {
	_, idx := language.MatchStrings(t.matcher, prefs...)
	return Supported[idx]
}

// T renders a message. Unknown ids come back unchanged.
func (t *Translator) T(lang language.Tag, id string, data map[string]any) string {
	return t.localize(lang, &goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
}

// TPlural renders a message choosing the plural form for count, which is also
// exposed to the message as .Count.
func (t *Translator) TPlural(lang language.Tag, id string, count int, data map[string]any) string {
	td := make(map[string]any, len(data)+1)
	for k, v := range data {
		td[k] = v
	}
	td["Count"] = count

	return t.localize(lang, &goi18n.LocalizeConfig{MessageID: id, PluralCount: count, TemplateData: td})
}

// Funcs exposes t and tn to html/template bound to lang.
func (t *Translator) Funcs(lang language.Tag) template.FuncMap {
	return template.FuncMap{
		"t": func(id string, data ...map[string]any) string {
			return t.T(lang, id, first(data))
		},
		"tn": func(id string, count int, data ...map[string]any) string {
			return t.TPlural(lang, id, count, first(data))
		},
	}
}

func (t *Translator) localize(lang language.Tag, cfg *goi18n.LocalizeConfig) string {
	msg, err := goi18n.NewLocalizer(t.bundle, lang.String()).Localize(cfg)
	if err != nil {
		return cfg.MessageID
	}
	return msg
}

func first(data []map[string]any) map[string]any {
	if len(data) == 0 {
		return nil
	}
	return data[0]
}

type languageKey struct{}

func WithLanguage(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// Language returns the request language or the default one.
func Language(ctx context.Context) language.Tag {
	if lang, ok := ctx.Value(languageKey{}).(language.Tag); ok {
		return lang
	}
	return Supported[0]
}
