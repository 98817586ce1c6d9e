// Package gcsuploader stores advice run snapshots in Google Cloud Storage.
package gcsuploader

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/finance-advisor/internal/domain"
)

// SnapshotPrefix is the object prefix run snapshots are written under.
const SnapshotPrefix = "insights"

// Bucket writes objects to one GCS bucket.
// It assumes Application Default Credentials are configured (gcloud auth application-default login).
type Bucket struct {
	client *storage.Client
	name   string
}

// NewBucket creates a storage client for bucketName.
func NewBucket(ctx context.Context, bucketName string) (*Bucket, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Bucket{client: client, name: bucketName}, nil
}

// Close closes the storage client.
func (b *Bucket) Close() error {
	return b.client.Close()
}

// WriteObject uploads data under objectName.
func (b *Bucket) WriteObject(ctx context.Context, objectName, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.name).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", URI(b.name, objectName), err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", URI(b.name, objectName), err)
	}
	return nil
}

// URI returns the gs:// URI of an object.
func URI(bucketName, objectName string) string {
	return "gs://" + bucketName + "/" + objectName
}

// Snapshot is the JSON document stored for one advice run.
type Snapshot struct {
	RunID      string                 `json:"run_id"`
	ExportedAt time.Time              `json:"exported_at"`
	Count      int                    `json:"count"`
	Insights   []domain.AdviceInsight `json:"insights"`
}

// SnapshotPublisher uploads each advice run as a JSON snapshot.
type SnapshotPublisher struct {
	writer ObjectWriter
	now    func() time.Time
}

// NewSnapshotPublisher creates a publisher writing through w.
func NewSnapshotPublisher(w ObjectWriter) *SnapshotPublisher {
	return &SnapshotPublisher{writer: w, now: time.Now}
}

// ObjectName returns insights/YYYY/MM/DD/<runID>.json for the UTC day of t.
func ObjectName(t time.Time, runID string) string {
	return path.Join(SnapshotPrefix, t.UTC().Format("2006/01/02"), runID+".json")
}

// PublishInsights uploads the insights of one run and returns nil on success.
func (p *SnapshotPublisher) PublishInsights(ctx context.Context, runID string, insights []domain.AdviceInsight) error {
	_, err := p.Upload(ctx, runID, insights)
	return err
}

// Upload writes the snapshot for runID and returns its object name.
func (p *SnapshotPublisher) Upload(ctx context.Context, runID string, insights []domain.AdviceInsight) (string, error) {
	now := p.now().UTC()
	data, err := json.MarshalIndent(Snapshot{
		RunID:      runID,
		ExportedAt: now,
		Count:      len(insights),
		Insights:   insights,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("Upload: encode snapshot: %w", err)
	}

	name := ObjectName(now, runID)
	if err := p.writer.WriteObject(ctx, name, "application/json", data); err != nil {
		return "", fmt.Errorf("Upload: %w", err)
	}
	return name, nil
}
