package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const blobExt = ".json"

// S3Options configures an S3 or Cloudflare R2 backed store.
type S3Options struct {
	Bucket string
	// Prefix is prepended to every object key, e.g. "records/".
	Prefix string
	// AccountID selects the R2 endpoint https://<account>.r2.cloudflarestorage.com
	// when Endpoint is empty.
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Endpoint        string
	Region          string
	// PublicBaseURL, when set, is used to build blob URLs instead of s3:// URLs.
	PublicBaseURL string
}

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store implements BlobStore on an S3 compatible bucket. Each record is one
// object at <prefix><id>.json.
type S3Store struct {
	client s3API
	opts   S3Options
}

// NewS3Store builds an S3 client from opts.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	endpoint := opts.Endpoint
	if endpoint == "" && opts.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", opts.AccountID)
	}
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.AccessKeySecret, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = endpoint != ""
	})
	return newS3StoreWithClient(client, opts), nil
}

func newS3StoreWithClient(client s3API, opts S3Options) *S3Store {
	return &S3Store{client: client, opts: opts}
}

// List pages through ListObjectsV2 for keys under the store prefix plus prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.opts.Bucket),
		Prefix: aws.String(s.opts.Prefix + prefix),
	}
	var blobs []BlobInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			id, ok := s.idFromKey(key)
			if !ok {
				continue
			}
			b := BlobInfo{ID: id, URL: s.url(key), Size: obj.Size, ETag: aws.ToString(obj.ETag)}
			if obj.LastModified != nil {
				b.ModifiedAt = obj.LastModified.UTC()
			}
			blobs = append(blobs, b)
		}
	}
	sort.Slice(blobs, func(i, j int) bool { return blobs[i].ID < blobs[j].ID })
	return blobs, nil
}

// Get downloads the object for id.
func (s *S3Store) Get(ctx context.Context, id string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", id, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", id, err)
	}
	return data, nil
}

// Put uploads data as the object for id.
func (s *S3Store) Put(ctx context.Context, id string, data []byte) (string, error) {
	key := s.key(id)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", id, err)
	}
	return s.url(key), nil
}

// Exists issues a HEAD request for id.
func (s *S3Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object %s: %w", id, err)
	}
	return true, nil
}

// Delete removes the object for id. S3 deletes are idempotent, so existence is
// checked first to report whether anything was removed.
func (s *S3Store) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.Exists(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete object %s: %w", id, err)
	}
	return true, nil
}

// Close is a no-op; the S3 client holds no resources that need releasing.
func (s *S3Store) Close() error { return nil }

func (s *S3Store) key(id string) string {
	return s.opts.Prefix + id + blobExt
}

func (s *S3Store) idFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, s.opts.Prefix) || !strings.HasSuffix(key, blobExt) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(key, s.opts.Prefix), blobExt)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func (s *S3Store) url(key string) string {
	if s.opts.PublicBaseURL != "" {
		return strings.TrimRight(s.opts.PublicBaseURL, "/") + "/" + key
	}
	return "s3://" + s.opts.Bucket + "/" + key
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}
