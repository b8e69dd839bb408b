// Package i18n translates roster labels and messages. Locale files are
// embedded; the bundle is built once by Init.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"slices"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

var (
	bundle      *i18n.Bundle
	defaultLang string
	loaded      []language.Tag
)

// Init loads every embedded locale with lang as the default language. lang
// must be one of the embedded locales.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	names, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	var tags []language.Tag
	for _, e := range names {
		if e.IsDir() {
			continue
		}
		file := path.Join("locales", e.Name())
		data, err := localeFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", file, err)
		}
		mf, err := b.ParseMessageFileBytes(data, file)
		if err != nil {
			return fmt.Errorf("parse locale file %s: %w", file, err)
		}
		tags = append(tags, mf.Tag)
		slog.Debug("loaded locale file", "file", file, "messages", len(mf.Messages))
	}

	if !hasBase(tags, tag) {
		return fmt.Errorf("no translations for language %q", lang)
	}
	bundle = b
	defaultLang = tag.String()
	loaded = tags
	return nil
}

// Supported reports whether lang parses to a language with a locale file.
func Supported(lang string) bool {
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	return hasBase(loaded, tag)
}

func hasBase(tags []language.Tag, tag language.Tag) bool {
	base, _ := tag.Base()
	return slices.ContainsFunc(tags, func(t language.Tag) bool {
		b, _ := t.Base()
		return b == base
	})
}

// NewLocalizer creates a localizer for the given languages, most preferred
// first. The default language is always the last fallback.
func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, append(langs, defaultLang)...)
}

// WithLocalizer stores a localizer in the context.
func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

func localizerFromCtx(ctx context.Context) *i18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok {
		return loc
	}
	return NewLocalizer()
}

// localize returns the message id itself when there is no translation, so a
// missing key shows up on the page instead of an empty string.
func localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	s, err := localizerFromCtx(ctx).Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return s
}

// T translates a message by ID.
func T(ctx context.Context, msgID string) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by ID with template data.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Tp translates a pluralized message. The count is available to the
// template as {{.Count}}.
func Tp(ctx context.Context, msgID string, count int) string {
	return localize(ctx, &i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}
