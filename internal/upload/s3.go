// Package upload stores rendered PDFs in S3-compatible object storage.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	pdfrender "github.com/alnah/go-pdfrender"
)

// ErrNoRegion is returned by New when Config.Region is empty.
var ErrNoRegion = errors.New("s3 region is required")

// ContentType is set on every stored object.
const ContentType = "application/pdf"

// Ownership attribute identifiers written into the Meta object metadata.
const (
	URNOwnerEntity   = "urn:restorecommerce:acs:names:ownerIndicatoryEntity"
	URNOrganization  = "urn:restorecommerce:acs:model:organization.Organization"
	URNOwnerInstance = "urn:restorecommerce:acs:names:ownerInstance"
)

// Client is the subset of *s3.Client the uploader needs.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config selects the S3 endpoint and credentials. Empty keys fall back to
// the default AWS credential chain.
type Config struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

// S3Uploader implements pdfrender.Uploader.
type S3Uploader struct {
	client Client
	now    func() time.Time
}

var _ pdfrender.Uploader = (*S3Uploader)(nil)

// New builds an uploader backed by the AWS SDK.
func New(ctx context.Context, cfg Config) (*S3Uploader, error) {
	if cfg.Region == "" {
		return nil, ErrNoRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c Client) *S3Uploader {
	return &S3Uploader{client: c, now: time.Now}
}

// Upload stores data under opts.Bucket/opts.Key.
func (u *S3Uploader) Upload(ctx context.Context, data []byte, opts pdfrender.UploadOptions, subject *pdfrender.Subject) (*pdfrender.UploadResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	meta, err := json.Marshal(newObjectMeta(u.now(), subject))
	if err != nil {
		return nil, fmt.Errorf("%w: encoding metadata: %v", pdfrender.ErrUpload, err)
	}

	in := &s3.PutObjectInput{
		Bucket:        aws.String(opts.Bucket),
		Key:           aws.String(opts.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(ContentType),
		Metadata: map[string]string{
			"Data":    "{}",
			"Key":     opts.Key,
			"Meta":    string(meta),
			"Subject": subjectValue(subject),
		},
	}
	if opts.ContentDisposition != "" {
		in.ContentDisposition = aws.String(opts.ContentDisposition)
	}

	if _, err := u.client.PutObject(ctx, in); err != nil {
		return nil, fmt.Errorf("%w: s3://%s/%s: %v", pdfrender.ErrUpload, opts.Bucket, opts.Key, err)
	}
	return &pdfrender.UploadResult{
		Length: len(data),
		URL:    "s3://" + opts.Bucket + "/" + opts.Key,
	}, nil
}

// attribute is one ownership entry.
type attribute struct {
	ID         string      `json:"id"`
	Value      string      `json:"value"`
	Attributes []attribute `json:"attributes"`
}

// objectMeta is the JSON stored in the Meta header.
type objectMeta struct {
	Created    time.Time   `json:"created"`
	Modified   time.Time   `json:"modified"`
	CreatedBy  string      `json:"createdBy,omitempty"`
	ModifiedBy string      `json:"modifiedBy,omitempty"`
	Owners     []attribute `json:"owners"`
}

func newObjectMeta(now time.Time, subject *pdfrender.Subject) objectMeta {
	m := objectMeta{Created: now.UTC(), Modified: now.UTC(), Owners: []attribute{}}
	if subject == nil {
		return m
	}
	m.CreatedBy, m.ModifiedBy = subject.ID, subject.ID
	if subject.Scope != "" {
		m.Owners = append(m.Owners, attribute{
			ID:    URNOwnerEntity,
			Value: URNOrganization,
			Attributes: []attribute{
				{ID: URNOwnerInstance, Value: subject.Scope, Attributes: []attribute{}},
			},
		})
	}
	return m
}

func subjectValue(subject *pdfrender.Subject) string {
	if subject == nil || subject.ID == "" {
		return "{}"
	}
	b, err := json.Marshal(map[string]string{"id": subject.ID})
	if err != nil {
		return "{}"
	}
	return string(b)
}
