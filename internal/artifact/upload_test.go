package artifact

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	keys   []string
	bodies map[string][]byte
	types  map[string]string
	failOn string
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	key := aws.StringValue(in.Key)
	if key == f.failOn {
		return nil, errors.New("access denied")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, key)
	f.bodies[key] = data
	f.types[key] = aws.StringValue(in.ContentType)
	return &s3manager.UploadOutput{Location: "s3://" + aws.StringValue(in.Bucket) + "/" + key}, nil
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{bodies: map[string][]byte{}, types: map[string]string{}}
}

func TestPublishUploadsBundleAndManifest(t *testing.T) {
	dir := t.TempDir()
	m, err := newTestPackager(t).Write(dir, fullBundle(t))
	require.NoError(t, err)

	fake := newFakeUploader()
	pub := newS3Publisher(fake, S3Config{Bucket: "artifacts", Prefix: "hpmc"}, slog.New(slog.DiscardHandler))

	locations, err := pub.Publish(context.Background(), dir, m)
	require.NoError(t, err)

	prefix := "hpmc/" + m.IRHash + "/"
	assert.Equal(t, []string{
		prefix + IRFile,
		prefix + CatalogFile,
		prefix + CatalogCBORFile,
		prefix + NumericFile,
		prefix + JobFile,
		prefix + ReportFile,
		prefix + ManifestFile,
	}, fake.keys, "manifest goes last")
	assert.Equal(t, "s3://artifacts/"+prefix+ManifestFile, locations[len(locations)-1])
	assert.Equal(t, "application/cbor", fake.types[prefix+CatalogCBORFile])
	assert.Equal(t, "application/json", fake.types[prefix+IRFile])

	for _, e := range m.Artifacts {
		assert.Equal(t, m.Checksums[e.Name], Checksum(fake.bodies[prefix+e.Path]), e.Name)
	}
}

func TestPublishStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	m, err := newTestPackager(t).Write(dir, fullBundle(t))
	require.NoError(t, err)

	fake := newFakeUploader()
	pub := newS3Publisher(fake, S3Config{Bucket: "b"}, nil)
	fake.failOn = pub.Key(m.IRHash, JobFile)

	locations, err := pub.Publish(context.Background(), dir, m)
	assert.ErrorContains(t, err, "failed to upload job.json")
	assert.Len(t, locations, 3, "artifacts before the failure were uploaded")
	assert.NotContains(t, fake.keys, pub.Key(m.IRHash, ManifestFile))
}

func TestPublishMissingFile(t *testing.T) {
	pub := newS3Publisher(newFakeUploader(), S3Config{Bucket: "b"}, nil)
	m := &Manifest{IRHash: "h", Artifacts: []Entry{{Name: IRFile, Path: IRFile}}}
	_, err := pub.Publish(context.Background(), filepath.Join(t.TempDir(), "empty"), m)
	assert.ErrorContains(t, err, "failed to read ir.json")
}

func TestNewS3PublisherRequiresBucket(t *testing.T) {
	_, err := NewS3Publisher(S3Config{Region: "us-east-1"}, nil)
	assert.Error(t, err)

	pub, err := NewS3Publisher(S3Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://localhost:9000"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "h/ir.json", pub.Key("h", IRFile))
}
