package mon

import (
	"github.com/pkg/errors"
)

// SourceProvider is the resolver's only dependency on the outside world:
// how to read a file's bytes and how to turn a relative import path into
// a canonical one. A filesystem-backed implementation, terminal
// rendering, and CLI packaging are external collaborators that consume
// this package; they are not built here.
type SourceProvider interface {
	Read(path string) ([]byte, error)
	Canonicalize(base, rel string) (string, error)
}

// MapSourceProvider is an in-memory SourceProvider keyed by already-
// canonical path, useful for tests and for embedders that assemble a
// document set without touching a filesystem.
type MapSourceProvider map[string]string

// Read returns the bytes registered at path.
func (m MapSourceProvider) Read(path string) ([]byte, error) {
	src, ok := m[path]
	if !ok {
		return nil, errors.Errorf("no source registered for %q", path)
	}
	return []byte(src), nil
}

// Canonicalize joins base and rel with a "/" the way a canonical path
// table built by tests expects; base is ignored when rel is already
// present verbatim in the map (so test fixtures can use flat keys).
func (m MapSourceProvider) Canonicalize(base, rel string) (string, error) {
	if _, ok := m[rel]; ok {
		return rel, nil
	}
	joined := joinPath(base, rel)
	if _, ok := m[joined]; ok {
		return joined, nil
	}
	return "", errors.Errorf("cannot canonicalize %q relative to %q", rel, base)
}

func joinPath(base, rel string) string {
	if base == "" {
		return rel
	}
	return base + "/" + rel
}
