package convert

import (
	"path/filepath"
	"strings"
)

// Kind is the closed set of conversion variants.
type Kind int

const (
	KindIdentity Kind = iota
	KindImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "identity"
	}
}

// Registry maps lower-cased file extensions to a Kind. Extensions that are
// not registered convert as KindIdentity.
type Registry struct {
	kinds map[string]Kind
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Kind)}
}

// Register maps ext (with or without the leading dot) to kind. A later
// registration of the same extension replaces the earlier one.
func (r *Registry) Register(ext string, kind Kind) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.kinds[ext] = kind
}

// KindOf returns the Kind registered for the extension of path.
func (r *Registry) KindOf(path string) Kind {
	if kind, ok := r.kinds[strings.ToLower(filepath.Ext(path))]; ok {
		return kind
	}
	return KindIdentity
}
