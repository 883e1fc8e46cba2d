// Package notify turns controller outcomes into localized user messages.
package notify

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/sadopc/shiftr/internal/attendance"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator localizes message IDs for one locale.
type Translator struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	locale    string
}

// NewTranslator loads every embedded locale. Unknown locales fall back to English.
func NewTranslator(locale string) (*Translator, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
	}

	if locale == "" {
		locale = "en"
	}
	return &Translator{
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, locale, "en"),
		locale:    locale,
	}, nil
}

// Locales lists the embedded locale tags.
func Locales() []string {
	entries, _ := localeFS.ReadDir("locales")
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	return out
}

func (t *Translator) Locale() string { return t.locale }

// T translates messageID. The ID itself is returned when it has no message.
func (t *Translator) T(messageID string, data map[string]any) string {
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// Reason returns the localized sentence for a rejection reason.
func (t *Translator) Reason(r attendance.Reason) string {
	return t.T("reason."+r.String(), map[string]any{"MaxBreaks": attendance.MaxBreaksPerDay})
}
