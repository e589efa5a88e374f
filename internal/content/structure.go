package content

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// UnitType is the structural kind of a content unit.
type UnitType string

const (
	UnitHeading   UnitType = "heading"
	UnitParagraph UnitType = "paragraph"
	UnitList      UnitType = "list"
	UnitLink      UnitType = "link"
)

// Bucket names a retrieval partition of a project's content.
type Bucket string

const (
	MainContent   Bucket = "mainContent"
	Navigation    Bucket = "navigation"
	Interactive   Bucket = "interactive"
	Informational Bucket = "informational"
)

// BucketOrder is the order buckets are embedded and reported in.
var BucketOrder = []Bucket{MainContent, Navigation, Interactive, Informational}

// navigationMaxLevel is the deepest heading level promoted to navigation.
const navigationMaxLevel = 2

// minLinkText is the visible text length a link needs to be kept.
const minLinkText = 3

// Unit is one typed fragment of a page. Index is the unit's position in its source array.
type Unit struct {
	Type      UnitType `json:"type"`
	Text      string   `json:"text"`
	Level     int      `json:"level,omitempty"`
	AnchorID  string   `json:"anchorId,omitempty"`
	ListKind  string   `json:"listKind,omitempty"`
	ItemCount int      `json:"itemCount,omitempty"`
	URL       string   `json:"url,omitempty"`
	Internal  bool     `json:"isInternal,omitempty"`
	Index     int      `json:"index"`
}

// Metadata flattens the unit's structural fields into a payload map.
func (u Unit) Metadata() map[string]any {
	m := map[string]any{
		"type":  string(u.Type),
		"index": u.Index,
	}
	switch u.Type {
	case UnitHeading:
		m["level"] = u.Level
		if u.AnchorID != "" {
			m["anchorId"] = u.AnchorID
		}
	case UnitList:
		m["listType"] = u.ListKind
		m["itemCount"] = u.ItemCount
	case UnitLink:
		m["url"] = u.URL
		m["isInternal"] = u.Internal
	case UnitParagraph:
		m["length"] = utf8.RuneCountInString(u.Text)
	}
	return m
}

// Structured holds a document's units grouped by bucket, each in source order.
type Structured struct {
	MainContent   []Unit `json:"mainContent"`
	Navigation    []Unit `json:"navigation"`
	Interactive   []Unit `json:"interactive"`
	Informational []Unit `json:"informational"`
}

// Units returns the units of bucket b.
func (s *Structured) Units(b Bucket) []Unit {
	switch b {
	case MainContent:
		return s.MainContent
	case Navigation:
		return s.Navigation
	case Interactive:
		return s.Interactive
	case Informational:
		return s.Informational
	}
	return nil
}

// Total returns the number of units across all buckets.
func (s *Structured) Total() int {
	return len(s.MainContent) + len(s.Navigation) + len(s.Interactive) + len(s.Informational)
}

// Structure sorts a document's units into buckets.
// Headings go to main content, and levels 1-2 also to navigation. Paragraphs go to
// main content and informational. Each list becomes one informational unit. Links
// with more than three characters of visible text become interactive units.
func Structure(doc *Document) *Structured {
	s := &Structured{
		MainContent:   []Unit{},
		Navigation:    []Unit{},
		Interactive:   []Unit{},
		Informational: []Unit{},
	}
	if doc == nil {
		return s
	}

	for i, h := range doc.Headings {
		text := strings.TrimSpace(h.Text)
		if text == "" {
			continue
		}
		u := Unit{Type: UnitHeading, Text: text, Level: h.Level, AnchorID: h.ID, Index: i}
		if h.Level <= navigationMaxLevel {
			s.Navigation = append(s.Navigation, u)
		}
		s.MainContent = append(s.MainContent, u)
	}

	for i, p := range doc.Paragraphs {
		text := strings.TrimSpace(p)
		if text == "" {
			continue
		}
		u := Unit{Type: UnitParagraph, Text: text, Index: i}
		s.Informational = append(s.Informational, u)
		s.MainContent = append(s.MainContent, u)
	}

	for i, l := range doc.Lists {
		if len(l.Items) == 0 {
			continue
		}
		s.Informational = append(s.Informational, Unit{
			Type:      UnitList,
			Text:      fmt.Sprintf("%s LIST: %s", strings.ToUpper(l.Type), strings.Join(l.Items, "; ")),
			ListKind:  l.Type,
			ItemCount: len(l.Items),
			Index:     i,
		})
	}

	for i, l := range doc.Links {
		text := strings.TrimSpace(l.Text)
		if utf8.RuneCountInString(text) <= minLinkText {
			continue
		}
		s.Interactive = append(s.Interactive, Unit{
			Type:     UnitLink,
			Text:     fmt.Sprintf("Link: %s (%s)", text, l.URL),
			URL:      l.URL,
			Internal: l.Internal,
			Index:    i,
		})
	}

	return s
}
