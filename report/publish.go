package report

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-billy/v6/util"
)

// S3Options configures publishing to S3 or an S3-compatible store. Empty
// fields fall back to the default AWS configuration chain.
type S3Options struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string // Optional: custom S3-compatible endpoint
}

// urlScheme represents the scheme of a destination
type urlScheme string

const (
	schemeFile  urlScheme = "file"
	schemeS3    urlScheme = "s3"
	schemeLocal urlScheme = "local" // no scheme, local path
)

func detectScheme(dest string) urlScheme {
	lower := strings.ToLower(dest)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		return schemeS3
	case strings.HasPrefix(lower, "file://"):
		return schemeFile
	default:
		return schemeLocal
	}
}

// Publish writes a rendered document to a local path or to s3://bucket/key
func Publish(ctx context.Context, dest string, doc []byte, opts S3Options) error {
	switch detectScheme(dest) {
	case schemeS3:
		return publishS3(ctx, dest, doc, opts)
	case schemeFile:
		return publishLocal(strings.TrimPrefix(dest, "file://"), doc)
	default:
		return publishLocal(dest, doc)
	}
}

// newLocalFS roots a filesystem at dir; swapped in tests
var newLocalFS = func(dir string) billy.Filesystem {
	return osfs.New(dir)
}

func publishLocal(path string, doc []byte) error {
	if path == "" {
		return fmt.Errorf("empty destination path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fs := newLocalFS(filepath.Dir(abs))
	if err := util.WriteFile(fs, filepath.Base(abs), doc, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// parseS3URL parses s3://bucket/key into bucket and key parts
func parseS3URL(url string) (bucket, key string, err error) {
	path := url[len("s3://"):]
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// newS3Client creates an S3 client with the given configuration; swapped in tests
var newS3Client = func(ctx context.Context, opts S3Options) (objectPutter, error) {
	var loadOpts []func(*config.LoadOptions) error

	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}

	if opts.AccessKey != "" && opts.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // For S3-compatible services
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func publishS3(ctx context.Context, url string, doc []byte, opts S3Options) error {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return err
	}

	client, err := newS3Client(ctx, opts)
	if err != nil {
		return err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func contentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
