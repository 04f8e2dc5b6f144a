package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadingBlock(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantBlock string
		wantOK    bool
	}{
		{
			name:      "simple block",
			raw:       "---\ntitle: A\n---\nbody",
			wantBlock: "title: A",
			wantOK:    true,
		},
		{
			name:      "multi line block",
			raw:       "---\ntitle: A\npriority: golden\n---\n",
			wantBlock: "title: A\npriority: golden",
			wantOK:    true,
		},
		{
			name:      "stops at first closing delimiter",
			raw:       "---\na: 1\n---\nb: 2\n---\n",
			wantBlock: "a: 1",
			wantOK:    true,
		},
		{
			name:      "empty block",
			raw:       "---\n\n---\n",
			wantBlock: "",
			wantOK:    true,
		},
		{
			name:   "not at start",
			raw:    "intro\n---\ntitle: A\n---\n",
			wantOK: false,
		},
		{
			name:   "unterminated",
			raw:    "---\ntitle: A\n",
			wantOK: false,
		},
		{
			name:   "no block",
			raw:    "# Heading\n",
			wantOK: false,
		},
		{
			name:   "closing delimiter directly after opening",
			raw:    "---\n---\n",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, ok := LeadingBlock(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBlock, block)
		})
	}
}

func TestParse(t *testing.T) {
	raw := "---\ntitle: Onboarding Guide\ntags:\n  - hr\n  - onboarding\nversion: 2\ndraft: false\nempty:\n---\n# Welcome\n\nHello.\n"

	m, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "Onboarding Guide", m.Metadata.Get(KeyTitle).String())
	assert.Equal(t, KindList, m.Metadata.Get(KeyTags).Kind())
	assert.Equal(t, []string{"hr", "onboarding"}, m.Metadata.Get(KeyTags).Strings())
	assert.Equal(t, "2", m.Metadata.Get(KeyVersion).String())
	assert.Equal(t, "false", m.Metadata.Get("draft").String())
	assert.True(t, m.Metadata.Get("empty").IsAbsent())
	assert.True(t, m.Metadata.Get(KeyOwner).IsAbsent())
	assert.Equal(t, "# Welcome\n\nHello.\n", m.Body)
}

func TestParse_NoFrontmatter(t *testing.T) {
	raw := "# Plain\n\nNo metadata here.\n"

	m, err := Parse(raw)
	require.NoError(t, err)

	assert.Empty(t, m.Metadata)
	assert.Equal(t, raw, m.Body)
}

func TestParse_CRLF(t *testing.T) {
	m, err := Parse("---\r\ntitle: Windows\r\n---\r\nbody\r\n")
	require.NoError(t, err)

	assert.Equal(t, "Windows", m.Metadata.Get(KeyTitle).String())
	assert.Equal(t, "body\n", m.Body)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "bad indentation", raw: "---\ntitle: [unclosed\n---\nbody"},
		{name: "not a mapping", raw: "---\njust a string\n---\nbody"},
		{name: "duplicate key", raw: "---\ntitle: A\ntitle: B\n---\nbody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)

			assert.Equal(t, ErrorTitle, m.Metadata.Get(KeyTitle).String())
			assert.Equal(t, ErrorStatus, m.Metadata.Get(KeyStatus).String())
			assert.Equal(t, tt.raw, m.Body)
		})
	}
}
