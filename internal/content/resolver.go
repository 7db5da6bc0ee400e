// Package content loads the per-city JSON guides with English fallback.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"citybasic/internal/utils"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

const DefaultLanguage = "en"

// Languages are the locales content is translated into, English first.
var Languages = []string{"en", "es", "fr", "de", "it", "pt", "ja", "ko", "zh"}

var (
	ErrNotFound = errors.New("content not found")

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	matcher = language.NewMatcher(languageTags())
)

func languageTags() []language.Tag {
	tags := make([]language.Tag, len(Languages))
	for i, l := range Languages {
		tags[i] = language.Make(l)
	}
	return tags
}

func ValidSlug(s string) bool {
	return len(s) <= 100 && slugPattern.MatchString(s)
}

func SupportedLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Negotiate picks the content language: an explicit supported query value wins,
// then the best Accept-Language match, then English.
func Negotiate(query, acceptLanguage string) string {
	if q := strings.ToLower(strings.TrimSpace(query)); SupportedLanguage(q) {
		return q
	}
	if acceptLanguage == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLanguage
	}
	return Languages[index]
}

// Resolver reads city files from fsys. Parsed cities are cached per (slug, lang).
type Resolver struct {
	fsys     fs.FS
	cache    *utils.Cache[*City]
	validate *validator.Validate
}

func NewResolver(fsys fs.FS, cacheSize int, ttl time.Duration) (*Resolver, error) {
	cache, err := utils.NewCache[*City](cacheSize, ttl)
	if err != nil {
		return nil, fmt.Errorf("create content cache: %w", err)
	}
	return &Resolver{
		fsys:     fsys,
		cache:    cache,
		validate: newValidator(),
	}, nil
}

// City resolves the guide for slug in lang. Non-English requests read
// <slug>-<lang>.json and fall back to <slug>.json when that file is missing or
// invalid. ErrNotFound means not even the English file could be loaded.
func (r *Resolver) City(slug, lang string) (*City, error) {
	if !ValidSlug(slug) {
		return nil, ErrNotFound
	}
	if !SupportedLanguage(lang) {
		lang = DefaultLanguage
	}

	key := slug + "/" + lang
	if city, ok := r.cache.Get(key); ok {
		return city, nil
	}

	if lang != DefaultLanguage {
		if city, err := r.load(slug, slug+"-"+lang+".json"); err == nil {
			city.Language = lang
			r.cache.Set(key, city)
			return city, nil
		}
	}

	city, err := r.load(slug, slug+".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, slug, err)
	}
	city.Language = DefaultLanguage
	r.cache.Set(key, city)
	return city, nil
}

// Place resolves a city and one of its places.
func (r *Resolver) Place(citySlug, placeSlug, lang string) (*City, *Place, error) {
	city, err := r.City(citySlug, lang)
	if err != nil {
		return nil, nil, err
	}
	place, ok := city.FindPlace(placeSlug)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s/%s", ErrNotFound, citySlug, placeSlug)
	}
	return city, place, nil
}

// Slugs lists every city that has an English file.
func (r *Resolver) Slugs() ([]string, error) {
	entries, err := fs.ReadDir(r.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	var slugs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".json" {
			continue
		}
		slug := strings.TrimSuffix(name, ".json")
		if !ValidSlug(slug) || isTranslation(slug) {
			continue
		}
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs, nil
}

// Invalidate drops every cached language of a city.
func (r *Resolver) Invalidate(slug string) {
	for _, l := range Languages {
		r.cache.Delete(slug + "/" + l)
	}
}

// InvalidateAll empties the cache so every city is re-read on next access.
func (r *Resolver) InvalidateAll() {
	r.cache.Purge()
}

func isTranslation(name string) bool {
	i := strings.LastIndex(name, "-")
	return i > 0 && name[i+1:] != DefaultLanguage && SupportedLanguage(name[i+1:])
}

func (r *Resolver) load(slug, name string) (*City, error) {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, err
	}

	var city City
	if err := json.Unmarshal(data, &city); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if err := r.validate.Struct(&city); err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}
	if city.Slug != slug {
		return nil, fmt.Errorf("%s declares slug %q", name, city.Slug)
	}
	return &city, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return ValidSlug(fl.Field().String())
	})

	// 纯文本描述不能为空
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		d := sl.Current().Interface().(Description)
		if d.Kind == DescriptionText && strings.TrimSpace(d.Text) == "" {
			sl.ReportError(d.Text, "Text", "Text", "required", "")
		}
	}, Description{})

	return v
}
