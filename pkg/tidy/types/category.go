package types

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Category routes files with matching extensions into a sub-folder.
type Category struct {
	// Name is the sub-folder name. It must match ^[A-Za-z0-9_]+$.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Extensions lists extensions without a leading dot. Matching is
	// case-insensitive.
	Extensions []string `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
}

// Matches reports whether ext belongs to the category. Both sides are
// normalized, so ".PDF" matches "pdf".
func (c Category) Matches(ext string) bool {
	ext = NormalizeExtension(ext)
	for _, e := range c.Extensions {
		if NormalizeExtension(e) == ext {
			return true
		}
	}
	return false
}

var categoryNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ErrInvalidCategories is returned when a category list cannot be used.
var ErrInvalidCategories = errors.New("invalid categories")

// ValidateCategories checks a category list for use by the engine.
func ValidateCategories(categories []Category) error {
	if len(categories) == 0 {
		return fmt.Errorf("%w: at least one category is required", ErrInvalidCategories)
	}

	seen := make(map[string]struct{}, len(categories))
	for i, c := range categories {
		if !categoryNamePattern.MatchString(c.Name) {
			return fmt.Errorf("%w: category %d has invalid name %q", ErrInvalidCategories, i+1, c.Name)
		}
		key := strings.ToLower(c.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate category name %q", ErrInvalidCategories, c.Name)
		}
		seen[key] = struct{}{}

		if len(c.Extensions) == 0 {
			return fmt.Errorf("%w: category %q has no extensions", ErrInvalidCategories, c.Name)
		}
		for _, ext := range c.Extensions {
			if strings.TrimSpace(NormalizeExtension(ext)) == "" {
				return fmt.Errorf("%w: category %q has an empty extension", ErrInvalidCategories, c.Name)
			}
		}
	}
	return nil
}

// NormalizeExtension lowercases ext and strips surrounding whitespace and
// any leading dots.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(ext), "."))
}

// NormalizeCategories returns a copy of categories with every extension
// normalized and empty entries dropped.
func NormalizeCategories(categories []Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		exts := make([]string, 0, len(c.Extensions))
		for _, ext := range c.Extensions {
			if n := NormalizeExtension(ext); n != "" {
				exts = append(exts, n)
			}
		}
		out = append(out, Category{Name: strings.TrimSpace(c.Name), Extensions: exts})
	}
	return out
}
