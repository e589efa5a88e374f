// Package content models fetched pages and sorts their units into retrieval buckets.
package content

// Document is the structured form of one fetched page.
type Document struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Headings    []Heading `json:"headings"`
	Paragraphs  []string  `json:"paragraphs"`
	Lists       []List    `json:"lists"`
	Links       []Link    `json:"links"`
	Images      []Image   `json:"images"`
	Metadata    Metadata  `json:"metadata"`
}

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// List is an HTML list; Type is the tag name ("ul" or "ol").
type List struct {
	Type  string   `json:"type"`
	Items []string `json:"items"`
}

type Link struct {
	URL      string `json:"url"`
	Text     string `json:"text"`
	Internal bool   `json:"isInternal"`
}

type Image struct {
	Src   string `json:"src"`
	Alt   string `json:"alt"`
	Title string `json:"title,omitempty"`
}

type Metadata struct {
	Author        string `json:"author"`
	Keywords      string `json:"keywords"`
	PublishedTime string `json:"publishedTime"`
	ModifiedTime  string `json:"modifiedTime"`
}

// HasStructuredData reports whether authorship or publication metadata was found.
func (d *Document) HasStructuredData() bool {
	return d.Metadata.PublishedTime != "" || d.Metadata.Author != ""
}

// IsEmpty reports whether the document has no extractable units.
func (d *Document) IsEmpty() bool {
	return len(d.Headings) == 0 && len(d.Paragraphs) == 0 && len(d.Lists) == 0 && len(d.Links) == 0
}
