package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/lostfound/internal/common"
)

const (
	// MaxPhotoBytes bounds a single download.
	MaxPhotoBytes = 10 << 20

	presignExpiry = 15 * time.Minute
)

var ErrTooLarge = errors.New("photo exceeds size limit")

// S3Config addresses an S3-compatible bucket.
type S3Config struct {
	User     string
	Password string
	Bucket   string
	Region   string
	Endpoint string
	// AllowedHosts limits downloads to these hosts and their subdomains.
	AllowedHosts []string
}

type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// seams for tests
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
	newS3PresignClient    = func(c *s3.Client) objectPresigner { return s3.NewPresignClient(c) }
)

// S3Archiver downloads remote photos and uploads them under
// listings/<listing id>/<uuid>.
type S3Archiver struct {
	bucket    string
	objects   objectStore
	presigner objectPresigner
	http      *http.Client
	hosts     []string
	ids       common.IDGenerator
}

// NewS3Archiver builds an archiver with static credentials and path-style
// addressing, which MinIO requires. A nil httpClient becomes NewHTTPClient,
// which refuses non-public addresses.
func NewS3Archiver(ctx context.Context, cfg S3Config, httpClient *http.Client, ids common.IDGenerator) (*S3Archiver, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.User, cfg.Password, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	if httpClient == nil {
		httpClient = NewHTTPClient(20 * time.Second)
	}

	return &S3Archiver{
		bucket:    cfg.Bucket,
		objects:   client,
		presigner: newS3PresignClient(client),
		http:      withRedirectCheck(httpClient, cfg.AllowedHosts),
		hosts:     cfg.AllowedHosts,
		ids:       ids,
	}, nil
}

// Archive copies an http(s) photo into the bucket and returns its s3:// ref.
func (a *S3Archiver) Archive(ctx context.Context, listingID, ref string) (string, error) {
	if !isRemote(ref) {
		return ref, nil
	}

	body, contentType, err := a.download(ctx, ref)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("listings/%s/%s", listingID, a.ids.New())
	in := &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := a.objects.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return RefPrefix + key, nil
}

func (a *S3Archiver) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	if !hostAllowed(a.hosts, req.URL) {
		return nil, "", fmt.Errorf("%w: %s", ErrHostNotAllowed, req.URL.Hostname())
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download photo: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPhotoBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read photo: %w", err)
	}
	if len(body) > MaxPhotoBytes {
		return nil, "", ErrTooLarge
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// Remove deletes the objects behind s3:// refs. Every ref is attempted and
// the failures are joined.
func (a *S3Archiver) Remove(ctx context.Context, refs []string) error {
	var errs []error
	for _, ref := range refs {
		key, ok := strings.CutPrefix(ref, RefPrefix)
		if !ok {
			continue
		}
		_, err := a.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("delete object %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// PublicURL presigns a GET for s3:// references and passes others through.
func (a *S3Archiver) PublicURL(ctx context.Context, ref string) (string, error) {
	key, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok {
		return ref, nil
	}
	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
