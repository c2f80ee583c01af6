// Package i18n resolves the bot's user-facing strings. Built-in catalogs ship embedded in the
// binary; a directory of YAML files may override or extend them.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultLang = "en"

//go:embed locales/*.yaml
var builtin embed.FS

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	// T returns the string for key formatted with args. Unknown keys are returned as-is.
	T(key string, args ...any) string
	Lang() string
}

// Catalog stores all available translations keyed by language then by flattened key.
type Catalog struct {
	translations map[string]map[string]string
	defaultLang  string
}

// Builtin returns the catalog compiled into the binary.
func Builtin(defaultLang string) (*Catalog, error) {
	return load(builtin, "locales", defaultLang, nil)
}

// LoadFromDir loads YAML catalogs from dir on top of the built-in ones. An empty dir yields
// the built-in catalog.
func LoadFromDir(dir, defaultLang string) (*Catalog, error) {
	base, err := Builtin(DefaultLang)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return base.withDefault(defaultLang)
	}

	return load(os.DirFS(dir), ".", defaultLang, base.translations)
}

func load(fsys fs.FS, dir, defaultLang string, base map[string]map[string]string) (*Catalog, error) {
	catalog := make(map[string]map[string]string, len(base))
	for lang, entries := range base {
		catalog[lang] = make(map[string]string, len(entries))
		for k, v := range entries {
			catalog[lang][k] = v
		}
	}

	if err := mergeDir(fsys, dir, catalog, base); err != nil {
		return nil, err
	}

	return (&Catalog{translations: catalog}).withDefault(defaultLang)
}

func (c *Catalog) withDefault(lang string) (*Catalog, error) {
	lang = normalize(lang)
	if lang == "" {
		lang = DefaultLang
	}
	if _, ok := c.translations[lang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", lang)
	}

	return &Catalog{translations: c.translations, defaultLang: lang}, nil
}

// Translator returns a translator for lang, falling back to the catalog default.
func (c *Catalog) Translator(lang string) Translator {
	if c == nil {
		return translator{}
	}

	norm := normalize(lang)
	if c.translations[norm] == nil {
		norm = c.defaultLang
	}

	return translator{
		lang:         norm,
		fallback:     c.defaultLang,
		translations: c.translations,
	}
}

// Default returns the translator for the catalog's default language.
func (c *Catalog) Default() Translator {
	if c == nil {
		return translator{}
	}
	return c.Translator(c.defaultLang)
}

// Languages returns all loaded languages.
func (c *Catalog) Languages() []string {
	if c == nil {
		return nil
	}

	languages := make([]string, 0, len(c.translations))
	for lang := range c.translations {
		languages = append(languages, lang)
	}
	return languages
}

type translator struct {
	lang         string
	fallback     string
	translations map[string]map[string]string
}

func (t translator) Lang() string {
	return t.lang
}

func (t translator) T(key string, args ...any) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	format, ok := t.lookup(t.lang, key)
	if !ok {
		format, ok = t.lookup(t.fallback, key)
	}
	if !ok {
		return key
	}

	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func (t translator) lookup(lang, key string) (string, bool) {
	if lang == "" || t.translations == nil {
		return "", false
	}

	value, ok := t.translations[lang][key]
	return value, ok && value != ""
}

func mergeDir(fsys fs.FS, dir string, catalog, base map[string]map[string]string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	var processed bool
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		processed = true

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("i18n: read file %s: %w", entry.Name(), err)
		}

		parsed, err := parse(data)
		if err != nil {
			return fmt.Errorf("i18n: parse file %s: %w", entry.Name(), err)
		}

		for lang, translations := range parsed {
			if catalog[lang] == nil {
				catalog[lang] = make(map[string]string, len(translations))
			}
			for key, value := range translations {
				if ref, ok := reference(base, lang, key); ok && !sameVerbs(ref, value) {
					return fmt.Errorf("i18n: %s: %s.%s = %q does not take the same arguments as %q", entry.Name(), lang, key, value, ref)
				}
				catalog[lang][key] = value
			}
		}
	}

	if !processed {
		return fmt.Errorf("i18n: no yaml files found in %s", dir)
	}

	return nil
}

// reference returns the built-in string an override of key in lang must stay compatible with.
func reference(base map[string]map[string]string, lang, key string) (string, bool) {
	if ref, ok := base[lang][key]; ok {
		return ref, true
	}
	ref, ok := base[DefaultLang][key]
	return ref, ok
}

// sameVerbs reports whether override formats cleanly with the arguments ref is rendered with.
// Callers pass ints, so ref's verbs are sampled with ints.
func sameVerbs(ref, override string) bool {
	args := make([]any, countVerbs(ref))
	for i := range args {
		args[i] = i + 1
	}
	if len(args) == 0 {
		return countVerbs(override) == 0
	}
	if strings.Contains(fmt.Sprintf(ref, args...), "%!") {
		return true
	}
	return !strings.Contains(fmt.Sprintf(override, args...), "%!")
}

func countVerbs(format string) int {
	n := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			i++
			continue
		}
		n++
	}
	return n
}

func isYAML(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// parse reads a file of the form `<lang>: {nested keys}` into flattened dot keys per language.
func parse(data []byte) (map[string]map[string]string, error) {
	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]string, len(raw))
	for lang, tree := range raw {
		lang = normalize(lang)
		if lang == "" {
			continue
		}

		flat := make(map[string]string)
		flatten("", tree, flat)
		if len(flat) > 0 {
			out[lang] = flat
		}
	}

	return out, nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for key, value := range in {
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			out[key] = v
		case map[string]any:
			flatten(key, v, out)
		}
	}
}

func normalize(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
