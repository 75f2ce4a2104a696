// Package messages holds the storefront's user-facing strings, loaded from
// embedded YAML catalogs and keyed by dotted paths such as "cart.empty".
package messages

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Fallback is the language every key must exist in.
const Fallback = "en"

// Bundle maps language → flattened key → message.
type Bundle struct {
	dict    map[string]map[string]string
	tags    []language.Tag
	matcher language.Matcher
}

// Load reads every embedded catalog.
func Load() (*Bundle, error) {
	return LoadFS(localeFS, "locales")
}

// MustLoad is Load for package initialisation; the embedded catalogs are fixed at build time.
func MustLoad() *Bundle {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

// LoadFS reads <lang>.yaml files from dir in fsys.
func LoadFS(fsys fs.FS, dir string) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("messages: read %s: %w", dir, err)
	}
	b := &Bundle{dict: make(map[string]map[string]string)}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		lang := strings.TrimSuffix(entry.Name(), ".yaml")
		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("messages: read %s: %w", entry.Name(), err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("messages: unmarshal %s: %w", entry.Name(), err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		b.dict[lang] = flat
	}
	if _, ok := b.dict[Fallback]; !ok {
		return nil, fmt.Errorf("messages: fallback locale %s not loaded", Fallback)
	}

	langs := b.Languages()
	// Fallback first so the matcher prefers it on ties.
	b.tags = append(b.tags, language.Make(Fallback))
	for _, l := range langs {
		if l != Fallback {
			b.tags = append(b.tags, language.Make(l))
		}
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Languages lists the loaded languages in sorted order.
func (b *Bundle) Languages() []string {
	out := make([]string, 0, len(b.dict))
	for l := range b.dict {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Resolve chooses the best loaded language for an Accept-Language header.
func (b *Bundle) Resolve(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Fallback
	}
	_, idx, confidence := b.matcher.Match(tags...)
	if confidence == language.No {
		return Fallback
	}
	base, _ := b.tags[idx].Base()
	return base.String()
}

// T returns the message for key in lang, falling back to the default language
// and finally the key itself. Args are applied with fmt.Sprintf.
func (b *Bundle) T(lang, key string, args ...any) string {
	text, ok := b.lookup(lang, key)
	if !ok {
		text, ok = b.lookup(Fallback, key)
	}
	if !ok {
		text = key
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// Has reports whether key exists in the fallback catalog.
func (b *Bundle) Has(key string) bool {
	_, ok := b.lookup(Fallback, key)
	return ok
}

func (b *Bundle) lookup(lang, key string) (string, bool) {
	m, ok := b.dict[lang]
	if !ok {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}
