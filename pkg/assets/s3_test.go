package assets

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type fakeObject struct {
	body        string
	contentType string
	modified    time.Time
}

// fakeBucket is an in-memory ObjectGetter.
type fakeBucket struct {
	objects map[string]fakeObject
	keys    []string
	err     error
}

func (b *fakeBucket) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	b.keys = append(b.keys, key)
	if b.err != nil {
		return nil, b.err
	}
	obj, ok := b.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	out := &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewBufferString(obj.body)),
		ContentLength: aws.Int64(int64(len(obj.body))),
		LastModified:  aws.Time(obj.modified),
	}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	return out, nil
}

func TestNewS3FSValidation(t *testing.T) {
	if _, err := NewS3FS(nil, "bucket", ""); err == nil {
		t.Error("NewS3FS(nil client) should fail")
	}
	if _, err := NewS3FS(&fakeBucket{}, "", ""); err == nil {
		t.Error("NewS3FS(empty bucket) should fail")
	}

	tests := []struct {
		prefix, want string
	}{
		{"", ""},
		{"/", ""},
		{"site", "site/"},
		{"/site/v1/", "site/v1/"},
	}
	for _, tt := range tests {
		s, err := NewS3FS(&fakeBucket{}, "bucket", tt.prefix)
		if err != nil {
			t.Fatalf("NewS3FS(%q) error = %v", tt.prefix, err)
		}
		if s.Prefix() != tt.want {
			t.Errorf("Prefix() for %q = %q, want %q", tt.prefix, s.Prefix(), tt.want)
		}
	}
}

func TestS3FSOpen(t *testing.T) {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	bucket := &fakeBucket{objects: map[string]fakeObject{
		"site/index.html":    {body: "<html></html>", contentType: "text/html", modified: modified},
		"site/assets/app.js": {body: "console.log(1)"},
	}}
	fsys, err := NewS3FS(bucket, "bucket", "site")
	if err != nil {
		t.Fatal(err)
	}

	f, err := fsys.Open("index.html")
	if err != nil {
		t.Fatalf("Open(index.html) error = %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if info.Name() != "index.html" || info.Size() != 13 || info.IsDir() {
		t.Errorf("Stat() = %s/%d/%v, want index.html/13/false", info.Name(), info.Size(), info.IsDir())
	}
	if !info.ModTime().Equal(modified) {
		t.Errorf("ModTime() = %v, want %v", info.ModTime(), modified)
	}
	if ct := f.(*objectFile).ContentType(); ct != "text/html" {
		t.Errorf("ContentType() = %q, want text/html", ct)
	}

	seeker, ok := f.(io.ReadSeeker)
	if !ok {
		t.Fatal("object file should implement io.ReadSeeker")
	}
	if _, err := seeker.Seek(6, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	rest, _ := io.ReadAll(seeker)
	if string(rest) != "</html>" {
		t.Errorf("read after seek = %q, want %q", rest, "</html>")
	}

	data, err := fs.ReadFile(fsys, "assets/app.js")
	if err != nil {
		t.Fatalf("ReadFile(assets/app.js) error = %v", err)
	}
	if string(data) != "console.log(1)" {
		t.Errorf("ReadFile(assets/app.js) = %q", data)
	}

	if got := bucket.keys[len(bucket.keys)-1]; got != "site/assets/app.js" {
		t.Errorf("requested key = %q, want site/assets/app.js", got)
	}
}

func TestS3FSOpenErrors(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]fakeObject{
		"big.bin": {body: "0123456789"},
	}}
	fsys, err := NewS3FS(bucket, "bucket", "")
	if err != nil {
		t.Fatal(err)
	}
	fsys.WithMaxObjectSize(4)

	tests := []struct {
		name string
		want error
	}{
		{"missing.txt", fs.ErrNotExist},
		{".", fs.ErrNotExist},
		{"../escape", fs.ErrInvalid},
		{"/abs", fs.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fsys.Open(tt.name)
			if !stderrors.Is(err, tt.want) {
				t.Errorf("Open(%q) error = %v, want %v", tt.name, err, tt.want)
			}
		})
	}

	if _, err := fsys.Open("big.bin"); err == nil {
		t.Error("Open(big.bin) should fail above the size limit")
	}
}

func TestMapS3Error(t *testing.T) {
	respErr := func(status int) error {
		return &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
				Err:      stderrors.New("api error"),
			},
		}
	}
	other := stderrors.New("network down")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such key", &types.NoSuchKey{}, fs.ErrNotExist},
		{"404", respErr(http.StatusNotFound), fs.ErrNotExist},
		{"403", respErr(http.StatusForbidden), fs.ErrPermission},
		{"500", respErr(http.StatusInternalServerError), nil},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapS3Error(tt.err)
			if tt.want == nil {
				if stderrors.Is(got, fs.ErrNotExist) || stderrors.Is(got, fs.ErrPermission) {
					t.Errorf("mapS3Error() = %v, want passthrough", got)
				}
				return
			}
			if !stderrors.Is(got, tt.want) {
				t.Errorf("mapS3Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewS3Client(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	anon := NewS3Client(S3Options{Region: "eu-central-1", Endpoint: "http://localhost:9000", UsePathStyle: true})
	o := anon.Options()
	if o.Region != "eu-central-1" {
		t.Errorf("Region = %q, want eu-central-1", o.Region)
	}
	if aws.ToString(o.BaseEndpoint) != "http://localhost:9000" {
		t.Errorf("BaseEndpoint = %q", aws.ToString(o.BaseEndpoint))
	}
	if !o.UsePathStyle {
		t.Error("UsePathStyle = false, want true")
	}
	if _, ok := o.Credentials.(aws.AnonymousCredentials); !ok {
		t.Errorf("Credentials = %T, want aws.AnonymousCredentials", o.Credentials)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	signed := NewS3Client(S3Options{Region: "us-east-1"})
	creds, err := signed.Options().Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if creds.AccessKeyID != "AKIDEXAMPLE" || creds.SecretAccessKey != "secret" {
		t.Errorf("credentials = %+v", creds)
	}
}
