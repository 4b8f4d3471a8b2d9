package storage

import (
	"fmt"
	"strings"
)

// LocatorKind identifies which resolution strategy a stored reference needs.
type LocatorKind string

const (
	// LocatorLocal references a file relative to the uploads directory.
	LocatorLocal LocatorKind = "local"
	// LocatorRemote references an absolute, publicly reachable URL.
	LocatorRemote LocatorKind = "remote"
	// LocatorProvider references a backend-native object key; the public
	// URL is derived from the active backend at read time.
	LocatorProvider LocatorKind = "provider"
)

// Locator is the single normalized reference to stored image bytes. It is
// decided once when the blob is written, so the serving path never has to
// sniff string prefixes on raw paths.
type Locator struct {
	Kind LocatorKind
	Ref  string
}

func NewLocalLocator(relPath string) Locator {
	return Locator{Kind: LocatorLocal, Ref: relPath}
}

func NewRemoteLocator(url string) Locator {
	return Locator{Kind: LocatorRemote, Ref: url}
}

func NewProviderLocator(key string) Locator {
	return Locator{Kind: LocatorProvider, Ref: key}
}

// String encodes the locator as "<kind>:<ref>" for database storage.
func (l Locator) String() string {
	return fmt.Sprintf("%s:%s", l.Kind, l.Ref)
}

// IsZero reports whether the locator carries no reference.
func (l Locator) IsZero() bool {
	return l.Kind == "" || l.Ref == ""
}

// ParseLocator decodes a locator previously encoded with String.
func ParseLocator(s string) (Locator, error) {
	kind, ref, ok := strings.Cut(s, ":")
	if !ok || ref == "" {
		return Locator{}, fmt.Errorf("malformed locator %q", s)
	}

	switch LocatorKind(kind) {
	case LocatorLocal, LocatorProvider:
		return Locator{Kind: LocatorKind(kind), Ref: ref}, nil
	case LocatorRemote:
		// The ref of a remote locator contains the scheme separator itself
		// ("remote:https://...") so it must not be split further.
		if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
			return Locator{}, fmt.Errorf("remote locator %q is not an absolute URL", s)
		}
		return Locator{Kind: LocatorRemote, Ref: ref}, nil
	default:
		return Locator{}, fmt.Errorf("unknown locator kind %q", kind)
	}
}
