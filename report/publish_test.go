package report

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/util"
	"github.com/stretchr/testify/require"

	"github.com/nickyhof/CatalogRunner/core"
	"github.com/nickyhof/CatalogRunner/equiv"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestDetectScheme(t *testing.T) {
	require.Equal(t, schemeS3, detectScheme("s3://bucket/key.md"))
	require.Equal(t, schemeS3, detectScheme("S3://bucket/key.md"))
	require.Equal(t, schemeFile, detectScheme("file:///tmp/report.md"))
	require.Equal(t, schemeLocal, detectScheme("report.md"))
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://reports/runs/catalog.json")
	require.NoError(t, err)
	require.Equal(t, "reports", bucket)
	require.Equal(t, "runs/catalog.json", key)

	for _, bad := range []string{"s3://reports", "s3://reports/", "s3:///key"} {
		_, _, err := parseS3URL(bad)
		require.ErrorContains(t, err, "invalid S3 URL", bad)
	}
}

func TestPublishLocal(t *testing.T) {
	fs := memfs.New()
	original := newLocalFS
	newLocalFS = func(dir string) billy.Filesystem { return fs }
	t.Cleanup(func() { newLocalFS = original })

	require.NoError(t, Publish(context.Background(), "/tmp/out/catalog.md", []byte("# report"), S3Options{}))
	data, err := util.ReadFile(fs, "catalog.md")
	require.NoError(t, err)
	require.Equal(t, "# report", string(data))

	require.NoError(t, Publish(context.Background(), "file:///tmp/out/catalog.json", []byte("{}"), S3Options{}))
	data, err = util.ReadFile(fs, "catalog.json")
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))
}

func TestPublishS3(t *testing.T) {
	putter := &fakePutter{}
	var gotOpts S3Options
	original := newS3Client
	newS3Client = func(ctx context.Context, opts S3Options) (objectPutter, error) {
		gotOpts = opts
		return putter, nil
	}
	t.Cleanup(func() { newS3Client = original })

	opts := S3Options{Region: "eu-west-1", Endpoint: "http://localhost:9000"}
	require.NoError(t, Publish(context.Background(), "s3://reports/runs/catalog.json", []byte(`{"passed":true}`), opts))

	require.Equal(t, opts, gotOpts)
	require.Equal(t, "reports", aws.ToString(putter.input.Bucket))
	require.Equal(t, "runs/catalog.json", aws.ToString(putter.input.Key))
	require.Equal(t, "application/json", aws.ToString(putter.input.ContentType))
	require.Equal(t, `{"passed":true}`, string(putter.body))

	putter.err = errors.New("access denied")
	err := Publish(context.Background(), "s3://reports/catalog.md", []byte("x"), opts)
	require.ErrorContains(t, err, "failed to upload to S3: access denied")
}

func TestArchive(t *testing.T) {
	archive, err := NewMemoryArchive()
	require.NoError(t, err)
	author := core.Identity{Name: "CatalogRunner", Email: "runner@catalogrunner.local"}

	first, err := archive.Commit("catalog.md", []byte("first"), "run 1", author)
	require.NoError(t, err)
	second, err := archive.Commit("catalog.md", []byte("second"), "run 2", author)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	doc, err := archive.Read("catalog.md")
	require.NoError(t, err)
	require.Equal(t, "second", string(doc))

	history, err := archive.History()
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, second, history[0].Hash)
	require.Contains(t, history[0].Message, "run 2")
	require.Equal(t, author, history[0].Author)

	_, err = archive.Read("missing.md")
	require.Error(t, err)

	var uninitialized *Archive
	_, err = uninitialized.Commit("catalog.md", nil, "run", author)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestOpenArchiveOnDisk(t *testing.T) {
	dir := t.TempDir()
	author := core.Identity{Name: "CatalogRunner", Email: "runner@catalogrunner.local"}

	archive, err := OpenArchive(dir)
	require.NoError(t, err)
	_, err = archive.Commit("catalog.md", []byte("first"), "run 1", author)
	require.NoError(t, err)

	reopened, err := OpenArchive(dir)
	require.NoError(t, err)
	history, err := reopened.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestAttestation(t *testing.T) {
	run := NewRun([]string{"duckdb", "arrow"}, equiv.DefaultTolerance)
	run.Finish()
	doc := []byte("# report")
	key := []byte("secret")

	token, err := Attest(run, doc, key)
	require.NoError(t, err)

	claims, err := VerifyAttestation(token, key)
	require.NoError(t, err)
	require.Equal(t, run.ID, claims.RunID)
	require.True(t, claims.Passed)
	require.Equal(t, []string{"duckdb", "arrow"}, claims.Backends)
	require.True(t, claims.Matches(doc))
	require.False(t, claims.Matches([]byte("# tampered")))

	_, err = VerifyAttestation(token, []byte("other"))
	require.ErrorContains(t, err, "invalid attestation")

	_, err = Attest(run, doc, nil)
	require.ErrorContains(t, err, "empty signing key")
}
