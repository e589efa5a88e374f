package vectorstore

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// MetadataContentType is the namespace suffix of a project's summary record.
	MetadataContentType = "metadata"
	// DataContentType is the namespace suffix of text stored directly by a key holder.
	DataContentType = "data"
)

// Namespace returns the partition holding a project's vectors of one content type.
func Namespace(projectID, contentType string) string {
	return projectID + "_" + contentType
}

// GenerateID returns the stable record id for the index-th vector of a content type.
// Re-ingesting the same source produces the same ids, so writes overwrite.
func GenerateID(projectID, contentType string, index int) string {
	return fmt.Sprintf("%s_%s_%d", projectID, contentType, index)
}

// pointID maps a record id onto the UUID space required by the durable index.
func pointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(recordID)).String()
}
