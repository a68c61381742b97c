package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// Archiver implements domain.ResultArchiver by writing each completed scan
// result as a JSON object under scans/<type>/<timestamp>-<id>.json.
type Archiver struct {
	client *s3.Client
	bucket string
}

// NewArchiver creates an Archiver that uploads to the given client's
// configured bucket.
func NewArchiver(c *Client) *Archiver {
	return &Archiver{
		client: c.S3(),
		bucket: c.Bucket(),
	}
}

// Archive uploads the result and returns the object key it was stored under.
func (a *Archiver) Archive(ctx context.Context, result domain.ScanResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal scan result %s: %w", result.ID, err)
	}

	key := fmt.Sprintf("scans/%s/%s-%s.json",
		result.Type, result.Timestamp.UTC().Format("20060102T150405Z"), result.ID)

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3blob: put object %s: %w", key, err)
	}
	return key, nil
}

// Compile-time interface check.
var _ domain.ResultArchiver = (*Archiver)(nil)
