package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket that pages ListObjectsV2 two keys at a time.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == *in.ContinuationToken {
				start = i
			}
		}
	}
	end := start + 2
	out := &s3.ListObjectsV2Output{}
	if end < len(keys) {
		out.IsTruncated = true
		out.NextContinuationToken = aws.String(keys[end])
	} else {
		end = len(keys)
	}
	mod := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         int64(len(f.objects[k])),
			ETag:         aws.String(`"` + ContentETag(f.objects[k]) + `"`),
			LastModified: &mod,
		})
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := newFakeS3()
	store := newS3StoreWithClient(fake, S3Options{Bucket: "outfits", Prefix: "records/"})
	testBlobStore(t, store)

	// Keys outside the layout are ignored by List.
	fake.objects["records/nested/x.json"] = []byte("{}")
	fake.objects["records/readme.txt"] = []byte("hi")
	blobs, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, blobs, 2)
	assert.Equal(t, "s3://outfits/records/look_a.json", blobs[0].URL)
}

func TestS3Store_PublicURL(t *testing.T) {
	store := newS3StoreWithClient(newFakeS3(), S3Options{Bucket: "outfits", Prefix: "r/", PublicBaseURL: "https://cdn.example.com/"})
	url, err := store.Put(context.Background(), "look", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/r/look.json", url)
}

func TestNewS3Store_requiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Options{})
	assert.Error(t, err)
}
