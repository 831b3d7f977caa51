package ids

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	Separator        = ':'
	DefaultNamespace = "minecraft"
)

var ErrInvalidIdentifier = errors.New("invalid identifier")

// ID names a voxel class as namespace:path.
type ID struct {
	Namespace string
	Path      string
}

// New validates both halves. Namespace allows [a-z0-9_.-]; path additionally
// allows '/'.
func New(namespace, path string) (ID, error) {
	if !ValidNamespace(namespace) {
		return ID{}, fmt.Errorf("%w: non [a-z0-9_.-] character in namespace of %s:%s", ErrInvalidIdentifier, namespace, path)
	}
	if !ValidPath(path) {
		return ID{}, fmt.Errorf("%w: non [a-z0-9/._-] character in path of %s:%s", ErrInvalidIdentifier, namespace, path)
	}
	return ID{Namespace: namespace, Path: path}, nil
}

func Vanilla(path string) (ID, error) { return New(DefaultNamespace, path) }

// Parse accepts "ns:path", ":path" and "path"; the last two use the default
// namespace.
func Parse(s string) (ID, error) {
	i := strings.IndexByte(s, Separator)
	if i < 0 {
		return Vanilla(s)
	}
	if i == 0 {
		return Vanilla(s[1:])
	}
	return New(s[:i], s[i+1:])
}

func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func MustVanilla(path string) ID {
	id, err := Vanilla(path)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) IsZero() bool { return id == ID{} }

func (id ID) String() string { return id.Namespace + string(Separator) + id.Path }

// Compare orders by path, then namespace.
func (id ID) Compare(o ID) int {
	if c := strings.Compare(id.Path, o.Path); c != 0 {
		return c
	}
	return strings.Compare(id.Namespace, o.Namespace)
}

func (id ID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ID) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

func ValidNamespace(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || c == '-' || c == '.' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

func ValidPath(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || c == '-' || c == '.' || c == '/' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

// Set is an interest set of identifiers.
type Set map[ID]struct{}

func NewSet(list ...ID) Set {
	s := make(Set, len(list))
	for _, id := range list {
		s[id] = struct{}{}
	}
	return s
}

// ParseSet parses every entry, failing on the first invalid one.
func ParseSet(list []string) (Set, error) {
	s := make(Set, len(list))
	for _, raw := range list {
		id, err := Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		s[id] = struct{}{}
	}
	return s, nil
}

func (s Set) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members ordered by Compare.
func (s Set) Sorted() []ID {
	out := make([]ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

func (s Set) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, id := range sorted {
		out[i] = id.String()
	}
	return out
}
