package minio

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/pkg/errors"
)

// Artifact is one local file to archive.  Group becomes a key segment
// ("" for run-level tables, "poses" for docking outputs).
type Artifact struct {
	Path  string
	Group string
}

type UploadResult struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

// ArtifactPublisher archives run outputs under <prefix>runs/<runID>/.
type ArtifactPublisher struct {
	client *MinIOClient
	logger logging.Logger
}

func NewArtifactPublisher(client *MinIOClient, log logging.Logger) *ArtifactPublisher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ArtifactPublisher{client: client, logger: log}
}

// ObjectKey returns the archive key for a artifact of runID.
func (p *ArtifactPublisher) ObjectKey(runID string, a Artifact) string {
	return path.Join(p.client.config.Prefix, "runs", runID, a.Group, filepath.Base(a.Path))
}

// Publish uploads every artifact that exists on disk.  Missing files are
// skipped with a warning; the first upload error aborts the batch.
func (p *ArtifactPublisher) Publish(ctx context.Context, runID string, artifacts []Artifact) ([]UploadResult, error) {
	if p.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	if runID == "" {
		return nil, errors.NewValidationError("run_id", "must not be empty")
	}

	var uploaded []UploadResult
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		res, err := p.upload(ctx, runID, a)
		if err != nil {
			if errors.IsNotFound(err) {
				p.logger.Warn("artifact missing, not archived", logging.String("path", a.Path))
				continue
			}
			return uploaded, err
		}
		uploaded = append(uploaded, *res)
	}

	p.logger.Info("artifacts archived",
		logging.String("run_id", runID),
		logging.String("bucket", p.client.config.Bucket),
		logging.Int("objects", len(uploaded)),
	)
	return uploaded, nil
}

func (p *ArtifactPublisher) upload(ctx context.Context, runID string, a Artifact) (*UploadResult, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("artifact not found: " + a.Path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to open artifact")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat artifact")
	}

	key := p.ObjectKey(runID, a)
	opts := minio.PutObjectOptions{
		ContentType:  contentType(a.Path),
		UserMetadata: map[string]string{"run-id": runID},
		PartSize:     uint64(p.client.config.PartSize),
	}
	out, err := p.client.GetClient().PutObject(ctx, p.client.config.Bucket, key, f, info.Size(), opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "upload failed").WithDetail(key)
	}
	return &UploadResult{
		Bucket:     p.client.config.Bucket,
		ObjectKey:  key,
		ETag:       out.ETag,
		Size:       info.Size(),
		UploadedAt: time.Now(),
	}, nil
}

// ListRun returns the object keys archived for runID.
func (p *ArtifactPublisher) ListRun(ctx context.Context, runID string) ([]string, error) {
	prefix := path.Join(p.client.config.Prefix, "runs", runID) + "/"
	var keys []string
	for obj := range p.client.GetClient().ListObjects(ctx, p.client.config.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "failed to list run artifacts")
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".csv":
		return "text/csv"
	case ".pdbqt", ".pdb":
		return "chemical/x-pdb"
	case ".log", ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

//Personal.AI order the ending
