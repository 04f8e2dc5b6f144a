package golden

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/knowledge-portal/pkg/frontmatter"
)

// DefaultManifestPath is the repository path of the golden manifest.
const DefaultManifestPath = "golden-manifest.json"

// ErrInvalidManifest is wrapped by ParseManifest errors.
var ErrInvalidManifest = errors.New("invalid golden manifest")

// Frontmatter markers of a golden document.
var markers = []string{`priority: golden`, `priority: "golden"`}

// Manifest lists the golden documents explicitly.
type Manifest struct {
	Files []string `json:"files"`
}

// ParseManifest decodes a manifest. The files field must be present and a
// list of strings; an empty list is valid.
func ParseManifest(raw string) (Manifest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	files, ok := fields["files"]
	if !ok || bytes.Equal(bytes.TrimSpace(files), []byte("null")) {
		return Manifest{}, fmt.Errorf("%w: files is not set", ErrInvalidManifest)
	}

	var m Manifest
	if err := json.Unmarshal(files, &m.Files); err != nil {
		return Manifest{}, fmt.Errorf("%w: files: %v", ErrInvalidManifest, err)
	}
	if m.Files == nil {
		m.Files = []string{}
	}
	return m, nil
}

// IsGolden reports whether the leading frontmatter block of raw contains a
// golden priority marker. The check is textual: the block is not parsed.
func IsGolden(raw string) bool {
	block, ok := frontmatter.LeadingBlock(raw)
	if !ok {
		return false
	}
	for _, marker := range markers {
		if strings.Contains(block, marker) {
			return true
		}
	}
	return false
}
