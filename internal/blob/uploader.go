package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/prometheus/client_golang/prometheus"

	"chatbackend/internal/domain"
	"chatbackend/internal/metrics"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Object is a payload to store under Key.
type Object struct {
	Key         string
	Body        []byte
	Size        int64
	ContentType string
}

type Result struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type Uploader struct {
	client     ObjectPutter
	bucket     string
	publicBase string
	log        *slog.Logger
	uploads    *prometheus.CounterVec
}

// NewUploader builds an uploader. uploads may be nil.
func NewUploader(client ObjectPutter, bucket, publicBaseURL string, log *slog.Logger, uploads *prometheus.CounterVec) *Uploader {
	return &Uploader{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBaseURL, "/"),
		log:        log,
		uploads:    uploads,
	}
}

// Upload validates obj against the profile and stores it with public-read
// visibility. Validation failures never reach the network.
func (u *Uploader) Upload(ctx context.Context, p Profile, obj Object) (*Result, error) {
	res, err := u.upload(ctx, p, obj)
	u.observe(p, err)
	return res, err
}

func (u *Uploader) upload(ctx context.Context, p Profile, obj Object) (*Result, error) {
	if err := validate(p, obj); err != nil {
		return nil, err
	}
	if u.bucket == "" {
		return nil, domain.Internal("S3 bucket name not configured")
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(obj.Key),
		Body:          bytes.NewReader(obj.Body),
		ContentLength: aws.Int64(int64(len(obj.Body))),
		ContentType:   aws.String(obj.ContentType),
		ACL:           types.ObjectCannedACLPublicRead,
	}
	if p.Attachment {
		input.ContentDisposition = aws.String(fmt.Sprintf(`attachment; filename="%s"`, obj.Key))
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		u.log.Error("S3 upload failed", "profile", p.Name, "key", obj.Key, "error", err)
		return nil, translate(p, err)
	}

	return &Result{URL: u.publicURL(obj.Key), Key: obj.Key}, nil
}

func validate(p Profile, obj Object) error {
	if len(obj.Body) == 0 {
		return domain.Validation("No %s provided", p.noun)
	}
	if obj.Key == "" {
		return domain.Validation("%s key is required", p.title())
	}
	size := obj.Size
	if size < int64(len(obj.Body)) {
		size = int64(len(obj.Body))
	}
	if size > p.MaxBytes {
		return p.TooLarge()
	}
	if !p.Accepts(obj.ContentType) {
		return domain.Validation("Invalid %s type: %s. Allowed types: %s", p.noun, obj.ContentType, strings.Join(p.Allowed, ", "))
	}
	return nil
}

func translate(p Profile, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return domain.Upstream("S3 bucket does not exist")
		case "AccessDenied":
			return domain.Upstream("Insufficient permissions to upload to S3")
		}
		return domain.Upstream("Failed to upload %s to S3: %s", p.noun, apiErr.ErrorMessage())
	}
	return domain.Upstream("Failed to upload %s to S3: %s", p.noun, err.Error())
}

func (u *Uploader) publicURL(key string) string {
	escaped := url.PathEscape(key)
	if u.publicBase != "" {
		return u.publicBase + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, escaped)
}

func (u *Uploader) observe(p Profile, err error) {
	if u.uploads == nil {
		return
	}
	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, domain.ErrValidation):
		outcome = metrics.OutcomeRejected
	case err != nil:
		outcome = metrics.OutcomeError
	}
	u.uploads.WithLabelValues(p.Name, outcome).Inc()
}
