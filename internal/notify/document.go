package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Document supplies an optional attachment. A nil attachment with a nil
// error means the document does not exist and the email goes out without it.
type Document interface {
	Load(ctx context.Context) (*Attachment, error)
}

// FileDocument reads an attachment from local disk.
type FileDocument struct {
	Path string
}

// Load reads the file; a missing file is not an error.
func (d FileDocument) Load(ctx context.Context) (*Attachment, error) {
	if d.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(d.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("notify: read document %s: %w", d.Path, err)
	}
	name := filepath.Base(d.Path)
	return &Attachment{Filename: name, ContentType: contentTypeFor(name), Data: data}, nil
}

// S3API is the subset of the S3 client used to fetch documents.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Document fetches an attachment from an S3 bucket.
type S3Document struct {
	Client S3API
	Bucket string
	Key    string
}

// Load downloads the object body.
func (d S3Document) Load(ctx context.Context) (*Attachment, error) {
	if d.Client == nil || d.Bucket == "" || d.Key == "" {
		return nil, nil
	}
	out, err := d.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.Bucket),
		Key:    aws.String(d.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("notify: get s3://%s/%s: %w", d.Bucket, d.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("notify: read s3://%s/%s: %w", d.Bucket, d.Key, err)
	}
	name := filepath.Base(d.Key)
	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = contentTypeFor(name)
	}
	return &Attachment{Filename: name, ContentType: contentType, Data: data}, nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
