// Package publish uploads rendered artifacts to object storage.
package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ritzau/infra-diagrams/pkg/logging"
	"github.com/ritzau/infra-diagrams/pkg/render"
)

// Target is a bucket and key prefix parsed from s3://bucket/prefix.
type Target struct {
	Bucket string
	Prefix string
}

// ParseTarget parses an s3:// URL. The prefix may be empty.
func ParseTarget(raw string) (Target, error) {
	rest, ok := strings.CutPrefix(raw, "s3://")
	if !ok {
		return Target{}, fmt.Errorf("publish target %q must start with s3://", raw)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Target{}, fmt.Errorf("publish target %q has no bucket", raw)
	}
	return Target{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// Key returns the object key for a file name.
func (t Target) Key(name string) string {
	if t.Prefix == "" {
		return name
	}
	return path.Join(t.Prefix, name)
}

func (t Target) String() string {
	if t.Prefix == "" {
		return "s3://" + t.Bucket
	}
	return "s3://" + t.Bucket + "/" + t.Prefix
}

// Uploader is the part of the S3 client the publisher needs.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads artifacts under a target prefix.
type S3Publisher struct {
	client Uploader
	target Target
}

// NewPublisher uses an existing client.
func NewPublisher(client Uploader, target Target) *S3Publisher {
	return &S3Publisher{client: client, target: target}
}

// NewS3Publisher creates a publisher from the default AWS credential chain.
// If endpoint is non-empty, path-style addressing is enabled (for MinIO and
// similar).
func NewS3Publisher(ctx context.Context, target Target, region, endpoint string) (*S3Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	return NewPublisher(s3.NewFromConfig(cfg, s3opts...), target), nil
}

// Publish uploads the artifact file and returns its s3:// location.
func (p *S3Publisher) Publish(ctx context.Context, a *render.Artifact) (string, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	key := p.target.Key(a.Name + "." + string(a.Format))
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.target.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(a.Format.ContentType()),
		Metadata:    map[string]string{"title": a.Title},
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}

	location := "s3://" + p.target.Bucket + "/" + key
	logging.Info("published artifact", "diagram", a.Name, "location", location)
	return location, nil
}
