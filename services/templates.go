package services

import (
	"fmt"
	"regexp"
	"strings"
)

// TemplateKind is the closed set of notification templates.
type TemplateKind int

const (
	DailyReminder TemplateKind = iota
	WelcomeMessage
	Motivational
)

// DefaultTemplate is what unknown template names and out-of-range kinds render as.
const DefaultTemplate = DailyReminder

type Action struct {
	ID    string
	Label string
}

type Template struct {
	Kind    TemplateKind
	Version int
	Title   string
	Body    string
	Actions []Action
}

type Rendered struct {
	Title   string
	Body    string
	Actions []Action
}

var templateNames = map[TemplateKind]string{
	DailyReminder:  "dailyReminder",
	WelcomeMessage: "welcomeMessage",
	Motivational:   "motivational",
}

var templates = map[TemplateKind]Template{
	DailyReminder: {
		Kind:    DailyReminder,
		Version: 1,
		Title:   "⏰ Waktunya Belajar!",
		Body:    "Hai! Hari ini ({day}) adalah jadwal belajarmu. Yuk catat progres belajarmu sekarang! 📚✨",
		Actions: []Action{
			{ID: "open-app", Label: "Buka Aplikasi 🚀"},
			{ID: "later", Label: "Nanti"},
		},
	},
	WelcomeMessage: {
		Kind:    WelcomeMessage,
		Version: 1,
		Title:   "🎉 Selamat Datang di StudyFlow!",
		Body:    "Terima kasih sudah mengaktifkan notifikasi! Kamu akan mendapat pengingat belajar setiap hari jam {time} 📖",
		Actions: []Action{
			{ID: "dashboard", Label: "Lihat Dashboard 📊"},
		},
	},
	Motivational: {
		Kind:    Motivational,
		Version: 1,
		Title:   "💪 Semangat Belajar!",
		Body:    "Konsistensi adalah kunci sukses! Jangan lupa catat progress belajarmu hari ini ya 🌟",
	},
}

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

func (k TemplateKind) String() string {
	if name, ok := templateNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TemplateKind(%d)", int(k))
}

// ParseTemplateKind resolves a template name. Unknown names return DefaultTemplate together with ErrUnknownTemplate.
func ParseTemplateKind(name string) (TemplateKind, error) {
	trimmed := strings.TrimSpace(name)
	for kind, n := range templateNames {
		if strings.EqualFold(n, trimmed) {
			return kind, nil
		}
	}
	return DefaultTemplate, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
}

// Lookup returns the template for kind, or the default template.
func Lookup(kind TemplateKind) Template {
	t, ok := templates[kind]
	if !ok {
		t = templates[DefaultTemplate]
	}
	t.Actions = append([]Action(nil), t.Actions...)
	return t
}

// Render substitutes every {name} in title and body. Placeholders with no value are kept verbatim.
func Render(kind TemplateKind, subs map[string]string) Rendered {
	t := Lookup(kind)
	return Rendered{
		Title:   substitute(t.Title, subs),
		Body:    substitute(t.Body, subs),
		Actions: t.Actions,
	}
}

// RenderNamed is Render keyed by template name.
func RenderNamed(name string, subs map[string]string) Rendered {
	kind, _ := ParseTemplateKind(name)
	return Render(kind, subs)
}

func substitute(s string, subs map[string]string) string {
	if len(subs) == 0 {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		if v, ok := subs[token[1:len(token)-1]]; ok {
			return v
		}
		return token
	})
}
