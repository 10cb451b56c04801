package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/turtacn/protflow/internal/testutil"
	"github.com/turtacn/protflow/pkg/errors"
)

type MockMinIOAPI struct {
	mock.Mock
}

func (m *MockMinIOAPI) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).([]minio.BucketInfo), args.Error(1)
}

func (m *MockMinIOAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinIOAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *MockMinIOAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	_, _ = io.Copy(io.Discard, reader)
	args := m.Called(ctx, bucketName, objectName, objectSize, opts.ContentType)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockMinIOAPI) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts.Prefix)
	return args.Get(0).(<-chan minio.ObjectInfo)
}

type ArtifactPublisherTestSuite struct {
	suite.Suite
	api       *MockMinIOAPI
	logger    *testutil.MockLogger
	publisher *ArtifactPublisher
	dir       string
}

func (s *ArtifactPublisherTestSuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	s.logger = testutil.NewMockLogger()
	s.dir = s.T().TempDir()

	s.api.On("BucketExists", mock.Anything, "protflow-artifacts").Return(true, nil).Once()
	client, err := NewMinIOClientWithAPI(context.Background(), s.api, &MinIOConfig{Prefix: "lab"}, s.logger)
	s.Require().NoError(err)
	s.publisher = NewArtifactPublisher(client, s.logger)
}

func (s *ArtifactPublisherTestSuite) write(name, content string) string {
	p := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (s *ArtifactPublisherTestSuite) TestObjectKey() {
	key := s.publisher.ObjectKey("run-1", Artifact{Path: "/x/y/dock_a_p1.pdbqt", Group: "poses"})
	s.Equal("lab/runs/run-1/poses/dock_a_p1.pdbqt", key)

	key = s.publisher.ObjectKey("run-1", Artifact{Path: "/x/vina_results.csv"})
	s.Equal("lab/runs/run-1/vina_results.csv", key)
}

func (s *ArtifactPublisherTestSuite) TestPublish_UploadsExistingSkipsMissing() {
	table := s.write("vina_results.csv", "pdb,pocket_rank\n")
	pose := s.write("dock_a_p1.pdbqt", "MODEL 1\n")

	s.api.On("PutObject", mock.Anything, "protflow-artifacts", "lab/runs/r1/vina_results.csv", int64(16), "text/csv").
		Return(minio.UploadInfo{ETag: "e1"}, nil).Once()
	s.api.On("PutObject", mock.Anything, "protflow-artifacts", "lab/runs/r1/poses/dock_a_p1.pdbqt", int64(8), "chemical/x-pdb").
		Return(minio.UploadInfo{ETag: "e2"}, nil).Once()

	res, err := s.publisher.Publish(context.Background(), "r1", []Artifact{
		{Path: table},
		{Path: pose, Group: "poses"},
		{Path: filepath.Join(s.dir, "missing.log"), Group: "poses"},
	})
	s.Require().NoError(err)
	s.Require().Len(res, 2)
	s.Equal("e1", res[0].ETag)
	s.Equal("lab/runs/r1/poses/dock_a_p1.pdbqt", res[1].ObjectKey)
	s.True(s.logger.HasMessage("warn", "artifact missing, not archived"))
	s.api.AssertExpectations(s.T())
}

func (s *ArtifactPublisherTestSuite) TestPublish_UploadError() {
	table := s.write("pockets_summary.csv", "x\n")
	s.api.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, fmt.Errorf("connection reset")).Once()

	_, err := s.publisher.Publish(context.Background(), "r1", []Artifact{{Path: table}})
	s.Require().Error(err)
	s.True(errors.IsCode(err, errors.ErrCodeStorageError))
}

func (s *ArtifactPublisherTestSuite) TestPublish_EmptyRunID() {
	_, err := s.publisher.Publish(context.Background(), "", nil)
	s.True(errors.IsCode(err, errors.ErrCodeValidation))
}

func (s *ArtifactPublisherTestSuite) TestPublish_Closed() {
	s.Require().NoError(s.publisher.client.Close())
	_, err := s.publisher.Publish(context.Background(), "r1", nil)
	s.Equal(ErrMinIOClientClosed, err)
}

func (s *ArtifactPublisherTestSuite) TestListRun() {
	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "lab/runs/r1/vina_results.csv"}
	ch <- minio.ObjectInfo{Key: "lab/runs/r1/poses/a.pdbqt"}
	close(ch)
	s.api.On("ListObjects", mock.Anything, "protflow-artifacts", "lab/runs/r1/").
		Return((<-chan minio.ObjectInfo)(ch)).Once()

	keys, err := s.publisher.ListRun(context.Background(), "r1")
	s.Require().NoError(err)
	s.Equal([]string{"lab/runs/r1/vina_results.csv", "lab/runs/r1/poses/a.pdbqt"}, keys)
}

func TestArtifactPublisherTestSuite(t *testing.T) {
	suite.Run(t, new(ArtifactPublisherTestSuite))
}

func TestEnsureBucket_Creates(t *testing.T) {
	api := new(MockMinIOAPI)
	api.On("BucketExists", mock.Anything, "b").Return(false, nil).Once()
	api.On("MakeBucket", mock.Anything, "b", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil).Once()

	c, err := NewMinIOClientWithAPI(context.Background(), api, &MinIOConfig{Bucket: "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", c.Bucket())
	api.AssertExpectations(t)
}

func TestEnsureBucket_Error(t *testing.T) {
	api := new(MockMinIOAPI)
	api.On("BucketExists", mock.Anything, "b").Return(false, fmt.Errorf("denied")).Once()

	_, err := NewMinIOClientWithAPI(context.Background(), api, &MinIOConfig{Bucket: "b"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStorageError))
}

func TestApplyDefaults(t *testing.T) {
	cfg := &MinIOConfig{}
	applyDefaults(cfg)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "protflow-artifacts", cfg.Bucket)
	assert.Equal(t, int64(16*1024*1024), cfg.PartSize)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", contentType("a.CSV"))
	assert.Equal(t, "text/plain", contentType("dock.log"))
	assert.Equal(t, "application/octet-stream", contentType("x.bin"))
}

//Personal.AI order the ending
