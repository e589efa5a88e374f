package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(units []Unit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Text)
	}
	return out
}

func TestStructure_HeadingLevels(t *testing.T) {
	doc := &Document{
		Headings: []Heading{
			{Level: 1, Text: "Pricing"},
			{Level: 3, Text: "FAQ"},
		},
	}

	s := Structure(doc)

	assert.Equal(t, []string{"Pricing"}, texts(s.Navigation))
	assert.Equal(t, []string{"Pricing", "FAQ"}, texts(s.MainContent))
	assert.Empty(t, s.Informational)
	assert.Empty(t, s.Interactive)
}

func TestStructure_AllKinds(t *testing.T) {
	doc := &Document{
		Headings:   []Heading{{Level: 2, Text: "Getting started", ID: "start"}},
		Paragraphs: []string{"First paragraph of text.", "   ", "Second paragraph of text."},
		Lists: []List{
			{Type: "ul", Items: []string{"alpha", "beta"}},
			{Type: "ol", Items: nil},
			{Type: "ol", Items: []string{"one"}},
		},
		Links: []Link{
			{URL: "https://example.com/docs", Text: "Documentation", Internal: true},
			{URL: "https://example.com/x", Text: "Go"},
			{URL: "https://other.io", Text: " abcd "},
		},
	}

	s := Structure(doc)

	assert.Equal(t, []string{"Getting started", "First paragraph of text.", "Second paragraph of text."}, texts(s.MainContent))
	assert.Equal(t, []string{
		"First paragraph of text.",
		"Second paragraph of text.",
		"UL LIST: alpha; beta",
		"OL LIST: one",
	}, texts(s.Informational))
	assert.Equal(t, []string{
		"Link: Documentation (https://example.com/docs)",
		"Link: abcd (https://other.io)",
	}, texts(s.Interactive))

	require.Len(t, s.Navigation, 1)
	assert.Equal(t, "start", s.Navigation[0].AnchorID)

	list := s.Informational[2]
	assert.Equal(t, UnitList, list.Type)
	assert.Equal(t, 2, list.ItemCount)
	assert.Equal(t, "ul", list.Metadata()["listType"])

	link := s.Interactive[0]
	assert.Equal(t, true, link.Metadata()["isInternal"])
	assert.Equal(t, 2, s.Interactive[1].Index, "index keeps the source position")
	assert.Equal(t, 2, s.Informational[1].Index)

	assert.Equal(t, 10, s.Total())
}

func TestStructure_EmptyAndNil(t *testing.T) {
	for name, doc := range map[string]*Document{"nil": nil, "empty": {}} {
		t.Run(name, func(t *testing.T) {
			s := Structure(doc)
			require.NotNil(t, s)
			assert.Zero(t, s.Total())
			for _, b := range BucketOrder {
				assert.NotNil(t, s.Units(b), "bucket %s should be an empty slice", b)
			}
		})
	}
}

func TestStructure_Deterministic(t *testing.T) {
	doc := &Document{
		Headings:   []Heading{{Level: 1, Text: "A"}, {Level: 2, Text: "B"}},
		Paragraphs: []string{"p1 text here", "p2 text here"},
		Links:      []Link{{URL: "/a", Text: "Alpha"}},
	}
	assert.Equal(t, Structure(doc), Structure(doc))
}

func TestDocument_HasStructuredData(t *testing.T) {
	assert.False(t, (&Document{}).HasStructuredData())
	assert.True(t, (&Document{Metadata: Metadata{Author: "Ada"}}).HasStructuredData())
	assert.True(t, (&Document{Metadata: Metadata{PublishedTime: "2024-01-01"}}).HasStructuredData())
	assert.False(t, (&Document{Metadata: Metadata{Keywords: "go"}}).HasStructuredData())
}
