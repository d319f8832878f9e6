package assets

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/espfs/webnav/internal/errors"
)

// DefaultMaxObjectSize bounds how much of one object S3FS buffers.
const DefaultMaxObjectSize = 32 << 20

// ObjectGetter is the subset of *s3.Client used by S3FS.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures an S3 client for asset serving.
type S3Options struct {
	// Region is the bucket region (e.g., "eu-central-1").
	Region string

	// Endpoint overrides the service endpoint for S3-compatible stores.
	Endpoint string

	// UsePathStyle addresses buckets as endpoint/bucket instead of
	// bucket.endpoint.
	UsePathStyle bool
}

// NewS3Client builds an S3 client. Credentials are read from
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN; when the
// key id is unset requests are sent anonymously, which suits public
// buckets.
func NewS3Client(opts S3Options) *s3.Client {
	o := s3.Options{
		Region:       opts.Region,
		UsePathStyle: opts.UsePathStyle,
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	if os.Getenv("AWS_ACCESS_KEY_ID") != "" {
		o.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials))
	} else {
		o.Credentials = aws.AnonymousCredentials{}
	}
	return s3.New(o)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	return aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "webnav environment",
	}, nil
}

// S3FS serves the objects below a bucket prefix as a read-only fs.FS.
//
// Objects are buffered whole so that the returned files can seek, which
// http.ServeContent needs for range requests. Directories are not listed:
// opening a name that is not an object fails with fs.ErrNotExist.
type S3FS struct {
	client  ObjectGetter
	bucket  string
	prefix  string
	maxSize int64
	ctx     context.Context
	timeout time.Duration
}

// NewS3FS creates an S3FS for bucket. prefix is prepended to every key
// and may be empty.
func NewS3FS(client ObjectGetter, bucket, prefix string) (*S3FS, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInvalidAssets).WithDetail("no S3 client")
	}
	if bucket == "" {
		return nil, errors.New(errors.CodeInvalidAssets).WithDetail("S3 bucket is empty")
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3FS{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		maxSize: DefaultMaxObjectSize,
		ctx:     context.Background(),
		timeout: 30 * time.Second,
	}, nil
}

// WithContext sets the parent context for object requests.
func (s *S3FS) WithContext(ctx context.Context) *S3FS {
	s.ctx = ctx
	return s
}

// WithTimeout bounds each object request.
func (s *S3FS) WithTimeout(d time.Duration) *S3FS {
	s.timeout = d
	return s
}

// WithMaxObjectSize sets the largest object S3FS will buffer.
func (s *S3FS) WithMaxObjectSize(n int64) *S3FS {
	s.maxSize = n
	return s
}

// Bucket returns the bucket name.
func (s *S3FS) Bucket() string { return s.bucket }

// Prefix returns the normalized key prefix ("" or ending in "/").
func (s *S3FS) Prefix() string { return s.prefix }

// Open implements fs.FS.
func (s *S3FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: mapS3Error(err)}
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > s.maxSize {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fmt.Errorf("object is %d bytes, limit %d", *out.ContentLength, s.maxSize)}
	}
	data, err := io.ReadAll(io.LimitReader(out.Body, s.maxSize+1))
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	if int64(len(data)) > s.maxSize {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fmt.Errorf("object exceeds %d bytes", s.maxSize)}
	}

	info := objectInfo{name: path.Base(name), size: int64(len(data))}
	if out.LastModified != nil {
		info.modTime = *out.LastModified
	}
	if out.ContentType != nil {
		info.contentType = *out.ContentType
	}
	return &objectFile{Reader: bytes.NewReader(data), info: info}, nil
}

func mapS3Error(err error) error {
	var noKey *types.NoSuchKey
	if stderrors.As(err, &noKey) {
		return fs.ErrNotExist
	}
	var respErr *awshttp.ResponseError
	if stderrors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case 404:
			return fs.ErrNotExist
		case 403:
			return fs.ErrPermission
		}
	}
	return err
}

// objectFile is an fs.File over a buffered object.
type objectFile struct {
	*bytes.Reader
	info objectInfo
}

func (f *objectFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *objectFile) Close() error { return nil }

// ContentType returns the object's stored Content-Type, if any.
func (f *objectFile) ContentType() string { return f.info.contentType }

type objectInfo struct {
	name        string
	size        int64
	modTime     time.Time
	contentType string
}

func (i objectInfo) Name() string { return i.name }
func (i objectInfo) Size() int64 { return i.size }
func (i objectInfo) Mode() fs.FileMode { return 0o444 }
func (i objectInfo) ModTime() time.Time { return i.modTime }
func (i objectInfo) IsDir() bool { return false }
func (i objectInfo) Sys() any { return nil }
