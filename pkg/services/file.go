package services

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// ArticleExt is the storage extension of every document in the content store.
const ArticleExt = ".md"

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidSlug reports whether slug can safely name a document. Path separators,
// dots and parent-directory segments are all rejected.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// StorageName maps a slug to its file name in the content store.
func StorageName(slug string) (string, error) {
	if !ValidSlug(slug) {
		return "", ErrInvalidSlug
	}
	return slug + ArticleExt, nil
}

// SlugFromName is the inverse of StorageName. ok is false for files that are
// not articles or whose stem is not a valid slug.
func SlugFromName(name string) (string, bool) {
	if path.Ext(name) != ArticleExt {
		return "", false
	}
	slug := strings.TrimSuffix(name, ArticleExt)
	if !ValidSlug(slug) {
		return "", false
	}
	return slug, true
}

// SafeJoin joins target under root, returning "" when target would escape root.
func SafeJoin(root, target string) string {
	clean := path.Clean("/" + strings.ReplaceAll(target, "\\", "/"))
	if clean == "/" || strings.Contains(target, "..") {
		return ""
	}
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}
