package ingest

import "learner-feature/internal/content"

// Result summarizes one ingestion run.
type Result struct {
	Stats          Stats       `json:"stats"`
	ContentTypes   []string    `json:"contentTypes"`
	EmbeddingCount int         `json:"embeddingCount"`
	Errors         []UnitError `json:"errors,omitempty"`
}

type Stats struct {
	Content    ContentStats   `json:"content"`
	Embeddings EmbeddingStats `json:"embeddings"`
	Metadata   MetadataStats  `json:"metadata"`
}

// ContentStats counts the raw units found in the source.
type ContentStats struct {
	Headings   int `json:"headings"`
	Paragraphs int `json:"paragraphs"`
	Lists      int `json:"lists"`
	Links      int `json:"links"`
	Images     int `json:"images"`
}

// EmbeddingStats counts embedding attempts. Total includes skipped units.
type EmbeddingStats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

type MetadataStats struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Author            string `json:"author"`
	HasStructuredData bool   `json:"hasStructuredData"`
}

// UnitError reports a unit that could not be embedded. Content is truncated.
type UnitError struct {
	ContentType string `json:"contentType"`
	Index       int    `json:"index"`
	Content     string `json:"content"`
	Error       string `json:"error"`
}

func newResult(doc *content.Document) *Result {
	return &Result{
		ContentTypes: []string{},
		Stats: Stats{
			Content: ContentStats{
				Headings:   len(doc.Headings),
				Paragraphs: len(doc.Paragraphs),
				Lists:      len(doc.Lists),
				Links:      len(doc.Links),
				Images:     len(doc.Images),
			},
			Metadata: MetadataStats{
				Title:             doc.Title,
				Description:       doc.Description,
				Author:            doc.Metadata.Author,
				HasStructuredData: doc.HasStructuredData(),
			},
		},
	}
}
