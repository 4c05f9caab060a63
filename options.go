package refbundle

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/reoring/refbundle/internal/logger"
	"github.com/reoring/refbundle/ref"
)

// PolicyKind selects how references are re-serialized in the bundle.
type PolicyKind int

const (
	PolicyLocal PolicyKind = iota
	PolicyNamespaced
	PolicyPathAdjusted
)

// Policy is the addressing scheme of the bundled output.
type Policy struct {
	Kind PolicyKind
	// Prefix is the namespace container for PolicyNamespaced, a slash path
	// such as "$defs" or "components/schemas".
	Prefix string
}

// Local inlines foreign types into the root's definitions container.
func Local() Policy { return Policy{Kind: PolicyLocal} }

// Namespaced gathers every reachable type under prefix.
func Namespaced(prefix string) Policy { return Policy{Kind: PolicyNamespaced, Prefix: prefix} }

// PathAdjusted inlines nothing and corrects relative paths for the output
// location.
func PathAdjusted() Policy { return Policy{Kind: PolicyPathAdjusted} }

func (p Policy) String() string {
	switch p.Kind {
	case PolicyNamespaced:
		return "namespaced(" + p.Prefix + ")"
	case PolicyPathAdjusted:
		return "path"
	default:
		return "local"
	}
}

// ParsePolicy maps a CLI/config name to a Policy. prefix is only used by
// "namespaced" and defaults to "$defs".
func ParsePolicy(name, prefix string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "local":
		return Local(), nil
	case "namespaced", "ns":
		if prefix == "" {
			prefix = DefaultNamespace
		}
		return Namespaced(prefix), nil
	case "path", "path-adjusted", "pathadjusted":
		return PathAdjusted(), nil
	}
	return Policy{}, fmt.Errorf("unknown policy %q (want local, namespaced or path)", name)
}

// Selection decides which cross-document references leaving the root
// document are inlined. References leaving an inlined type are always
// followed.
type Selection int

const (
	// SelectAll follows every reference.
	SelectAll Selection = iota
	// SelectAllOf follows only references that are direct members of an
	// "allOf" list.
	SelectAllOf
	// SelectComplex follows only references to types that contain
	// references themselves.
	SelectComplex
)

func (s Selection) String() string {
	switch s {
	case SelectAllOf:
		return "allof"
	case SelectComplex:
		return "complex"
	default:
		return "all"
	}
}

// ParseSelection maps a CLI/config name to a Selection.
func ParseSelection(name string) (Selection, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return SelectAll, nil
	case "allof":
		return SelectAllOf, nil
	case "complex":
		return SelectComplex, nil
	}
	return 0, fmt.Errorf("unknown selection %q (want all, allof or complex)", name)
}

// Unresolved controls what happens to a reference that cannot be resolved.
type Unresolved int

const (
	// UnresolvedKeep leaves the original reference string in place.
	UnresolvedKeep Unresolved = iota
	// UnresolvedOpaque replaces the reference with an open object schema.
	UnresolvedOpaque
)

func (u Unresolved) String() string {
	if u == UnresolvedOpaque {
		return "opaque"
	}
	return "keep"
}

// ParseUnresolved maps a CLI/config name to an Unresolved mode.
func ParseUnresolved(name string) (Unresolved, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "keep":
		return UnresolvedKeep, nil
	case "opaque":
		return UnresolvedOpaque, nil
	}
	return 0, fmt.Errorf("unknown unresolved mode %q (want keep or opaque)", name)
}

// Defaults.
const (
	DefaultMaxDepth   = 32
	DefaultInlinedKey = "x-inlined-types"
	DefaultNamespace  = "$defs"
)

// DefaultContainers are the definitions containers recognized when
// Options.Containers is empty, in order of preference for the output.
var DefaultContainers = []string{"components/schemas", "$defs", "definitions", "defs"}

// Options controls one bundling run. The zero value is usable: it bundles
// the whole root document with PolicyLocal and writes no inlined-type list.
type Options struct {
	// Types restricts the output to these root types and their closure.
	// Empty means the whole root document is emitted.
	Types []string
	Policy Policy
	// Output is the store-relative path the bundle will be written to.
	// Relative references are corrected for it. Empty means the root's path.
	Output string
	// Containers lists definitions containers as slash paths.
	Containers []string
	Select     Selection
	Unresolved Unresolved
	// Strict turns unresolved references into an error.
	Strict bool
	// MaxDepth bounds the reference hops from a root (DefaultMaxDepth when 0).
	MaxDepth int
	// InlinedKey names the top-level key listing inlined foreign types.
	// Empty disables the list.
	InlinedKey string

	Logger *slog.Logger
	// Classifier may be shared between runs to reuse classification results.
	Classifier *ref.Classifier
}

// DefaultOptions returns the options the CLI starts from.
func DefaultOptions() Options {
	return Options{
		Policy:     Local(),
		Containers: append([]string(nil), DefaultContainers...),
		MaxDepth:   DefaultMaxDepth,
		InlinedKey: DefaultInlinedKey,
	}
}

// settings is Options after defaulting and validation.
type settings struct {
	Options
	containers []ref.Pointer
	namespace  ref.Pointer
}

func (o Options) settle() (*settings, error) {
	s := &settings{Options: o}
	if len(s.Containers) == 0 {
		s.Containers = DefaultContainers
	}
	if s.MaxDepth <= 0 {
		s.MaxDepth = DefaultMaxDepth
	}
	if s.Logger == nil {
		s.Logger = logger.Discard()
	}
	if s.Classifier == nil {
		s.Classifier = ref.NewClassifier(0)
	}
	for _, c := range s.Containers {
		p, err := containerPointer(c)
		if err != nil {
			return nil, err
		}
		s.containers = append(s.containers, p)
	}
	if s.Policy.Kind == PolicyNamespaced {
		prefix := s.Policy.Prefix
		if prefix == "" {
			prefix = DefaultNamespace
		}
		p, err := containerPointer(prefix)
		if err != nil {
			return nil, err
		}
		s.namespace = p
		// Types already gathered under the namespace are recognized as types.
		if !hasPointer(s.containers, p) {
			s.containers = append(s.containers, p)
		}
	}
	return s, nil
}

func containerPointer(c string) (ref.Pointer, error) {
	c = strings.Trim(strings.TrimPrefix(strings.TrimSpace(c), "#"), "/")
	if c == "" {
		return nil, fmt.Errorf("empty definitions container")
	}
	p, err := ref.ParsePointer("/" + c)
	if err != nil {
		return nil, fmt.Errorf("container %q: %w", c, err)
	}
	return p, nil
}

func hasPointer(ps []ref.Pointer, p ref.Pointer) bool {
	for _, q := range ps {
		if q.Equal(p) {
			return true
		}
	}
	return false
}
