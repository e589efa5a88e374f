package storage

import "time"

// ProjectRecord is a registered web source whose vectors share the Namespace prefix.
type ProjectRecord struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	OwnerID        string    `json:"userId"`
	Namespace      string    `json:"namespace"`
	Title          string    `json:"title,omitempty"`
	Description    string    `json:"description,omitempty"`
	EmbeddingCount int       `json:"embeddingCount"`
	CreatedAt      time.Time `json:"createdAt"`
}
