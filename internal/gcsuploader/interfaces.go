package gcsuploader

import "context"

// ObjectWriter stores whole objects in a bucket.
type ObjectWriter interface {
	// WriteObject uploads data under objectName, replacing any existing object.
	WriteObject(ctx context.Context, objectName, contentType string, data []byte) error
}
