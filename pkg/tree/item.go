// Package tree turns the flat recursive listing of a repository into the
// sorted document tree and synthesizes directory listings from it.
package tree

import (
	"slices"
	"strings"

	"github.com/Sternrassler/knowledge-portal/pkg/client"
)

// Extension is the suffix of tracked documents.
const Extension = ".md"

// Kind is the type of a tree item.
type Kind string

const (
	// KindFile is a document.
	KindFile Kind = "file"
	// KindDirectory is a directory synthesized from document paths.
	KindDirectory Kind = "dir"
)

// Item is a node of the document tree.
type Item struct {
	Path string `json:"path"`
	Kind Kind   `json:"type"`
	Name string `json:"name"`
	// SHA is the blob hash. Empty for synthesized directories.
	SHA string `json:"sha"`
}

// IsDir reports whether the item is a directory.
func (i Item) IsDir() bool {
	return i.Kind == KindDirectory
}

// Build keeps the blobs ending in Extension and returns them as File items
// sorted by path.
func Build(entries []client.TreeEntry) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.Type != client.EntryTypeBlob || !strings.HasSuffix(e.Path, Extension) {
			continue
		}
		items = append(items, Item{
			Path: e.Path,
			Kind: KindFile,
			Name: baseName(e.Path),
			SHA:  e.SHA,
		})
	}

	slices.SortFunc(items, func(a, b Item) int {
		return strings.Compare(a.Path, b.Path)
	})
	return items
}

// NormalizePrefix strips leading and trailing slashes.
func NormalizePrefix(prefix string) string {
	return strings.Trim(prefix, "/")
}

// Children returns the direct children of prefix: files directly under it
// and one synthesized directory per immediate subdirectory. Directories
// sort before files, each kind by name.
func Children(items []Item, prefix string) []Item {
	prefix = NormalizePrefix(prefix)

	children := make([]Item, 0)
	subdirs := make(map[string]struct{})
	var order []string

	for _, item := range items {
		if item.Kind != KindFile {
			continue
		}

		rest := item.Path
		if prefix != "" {
			var ok bool
			if rest, ok = strings.CutPrefix(item.Path, prefix+"/"); !ok {
				continue
			}
		}

		dir, _, nested := strings.Cut(rest, "/")
		if !nested {
			children = append(children, item)
			continue
		}
		if _, seen := subdirs[dir]; !seen {
			subdirs[dir] = struct{}{}
			order = append(order, dir)
		}
	}

	for _, name := range order {
		p := name
		if prefix != "" {
			p = prefix + "/" + name
		}
		children = append(children, Item{Path: p, Kind: KindDirectory, Name: name})
	}

	slices.SortFunc(children, func(a, b Item) int {
		if a.Kind != b.Kind {
			if a.IsDir() {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return children
}

func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func clone(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
