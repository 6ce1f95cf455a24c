package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no document backs the requested slug.
	ErrNotFound = errors.New("article not found")
	// ErrInvalidSlug is returned for slugs that cannot name a file in the content store.
	ErrInvalidSlug = errors.New("invalid slug")
	// ErrMalformedFrontMatter means a front matter block was opened but is unterminated or undecodable.
	ErrMalformedFrontMatter = errors.New("malformed front matter")
	// ErrIO marks content store read failures.
	ErrIO = errors.New("content store i/o failure")
	// ErrParse marks markup the pipeline could not render.
	ErrParse = errors.New("markup parse failure")
)

// IOError reports a failed content store operation. It matches ErrIO with errors.Is.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
