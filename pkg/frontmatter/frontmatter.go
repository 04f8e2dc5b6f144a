// Package frontmatter splits markdown documents into YAML metadata and body.
// Malformed metadata never fails a document: Parse degrades to a fixed
// placeholder and returns the raw text as the body.
package frontmatter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	delimiter = "---"
	opening   = delimiter + "\n"
	closing   = "\n" + delimiter
)

// Placeholder metadata of a document whose frontmatter does not parse.
const (
	ErrorTitle  = "Error parsing frontmatter"
	ErrorStatus = "yaml-error"
)

// ErrMalformed is wrapped by Parse errors.
var ErrMalformed = errors.New("malformed frontmatter")

// Matter is a parsed document.
type Matter struct {
	Metadata Metadata
	Body     string
}

// LeadingBlock returns the text between a leading "---" line and the
// next "\n---" sequence. The document must start with "---\n".
func LeadingBlock(raw string) (string, bool) {
	if !strings.HasPrefix(raw, opening) {
		return "", false
	}
	rest := raw[len(opening):]
	end := strings.Index(rest, closing)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// Parse splits raw into metadata and body. A document without a leading
// block has empty metadata and raw as its body. On malformed YAML the
// returned Matter carries the placeholder metadata and the raw text, and
// the error wraps ErrMalformed.
func Parse(raw string) (Matter, error) {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")

	block, ok := LeadingBlock(normalized)
	if !ok {
		return Matter{Metadata: Metadata{}, Body: raw}, nil
	}

	body := normalized[len(opening)+len(block)+len(closing):]
	// The rest of the closing line belongs to the delimiter.
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	var data map[string]any
	if err := yaml.Unmarshal([]byte(block), &data); err != nil {
		return fallback(raw), fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	meta := make(Metadata, len(data))
	for key, v := range data {
		if value := toValue(v); !value.IsAbsent() {
			meta[key] = value
		}
	}

	return Matter{Metadata: meta, Body: body}, nil
}

func fallback(raw string) Matter {
	return Matter{
		Metadata: Metadata{
			KeyTitle:  TextValue(ErrorTitle),
			KeyStatus: TextValue(ErrorStatus),
		},
		Body: raw,
	}
}

// toValue converts a decoded YAML node into a Value.
func toValue(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			items = append(items, scalarText(item))
		}
		return ListValue(items...)
	default:
		return TextValue(scalarText(t))
	}
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
