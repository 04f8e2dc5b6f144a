package cache

import (
	"strings"
)

// Namespace separates the logical queries that share a store.
type Namespace string

const (
	// NamespaceTree holds the resolved recursive listing of a branch.
	NamespaceTree Namespace = "tree"

	// NamespaceFile holds raw document content per path.
	NamespaceFile Namespace = "file"

	// NamespaceDir holds synthesized directory listings per prefix.
	NamespaceDir Namespace = "dir"

	// NamespaceGolden holds the resolved golden set.
	NamespaceGolden Namespace = "golden"
)

// Key identifies a cached value.
type Key struct {
	// Namespace is the kind of query that produced the value
	Namespace Namespace

	// Arg is the query argument (branch, path or prefix); empty for fixed keys
	Arg string
}

// TreeKey is the key of the full tree of a branch.
func TreeKey(branch string) Key {
	return Key{Namespace: NamespaceTree, Arg: branch}
}

// FileKey is the key of the raw content of a document.
func FileKey(path string) Key {
	return Key{Namespace: NamespaceFile, Arg: path}
}

// DirKey is the key of the listing of a normalized directory prefix.
func DirKey(prefix string) Key {
	return Key{Namespace: NamespaceDir, Arg: prefix}
}

// GoldenKey is the key of the golden set.
func GoldenKey() Key {
	return Key{Namespace: NamespaceGolden}
}

// String generates the store key.
// Format: namespace[:arg]
//
// Example:
//
//	file:guides/onboarding.md
func (k Key) String() string {
	if k.Arg == "" {
		return string(k.Namespace)
	}
	return strings.Join([]string{string(k.Namespace), k.Arg}, ":")
}
