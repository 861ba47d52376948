package common

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects  map[string][]byte
	pageSize int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, pageSize: 2}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
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
	end := min(start+f.pageSize, len(keys))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func TestS3PutGetRoundTrip(t *testing.T) {
	fake := newFakeS3()
	store := NewS3WithClient(fake, "bucket", "briefings")
	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "2026-02-01/briefing.json", []byte(`{"date":"2026-02-01"}`)))
	assert.Contains(t, fake.objects, "briefings/2026-02-01/briefing.json")

	data, err := store.GetObject(ctx, "2026-02-01/briefing.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-02-01"}`, string(data))
}

func TestS3MissingKey(t *testing.T) {
	store := NewS3WithClient(newFakeS3(), "bucket", "briefings/")
	ctx := context.Background()

	_, err := store.GetObject(ctx, "nope.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3ListFollowsPagination(t *testing.T) {
	fake := newFakeS3()
	store := NewS3WithClient(fake, "bucket", "briefings/")
	ctx := context.Background()
	for _, d := range []string{"2026-01-29", "2026-01-30", "2026-01-31"} {
		require.NoError(t, store.PutObject(ctx, d+"/briefing.json", []byte("{}")))
	}
	fake.objects["other/x.json"] = []byte("{}")

	keys, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2026-01-29/briefing.json",
		"2026-01-30/briefing.json",
		"2026-01-31/briefing.json",
	}, keys)

	keys, err = store.List(ctx, "2026-01-30")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-30/briefing.json"}, keys)
}
