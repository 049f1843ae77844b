package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"oiflow/logger"
)

// fakeS3 serves canned list pages and objects, recording whether the
// requester-pays header was attached.
type fakeS3 struct {
	pages    [][]string
	objects  map[string][]byte
	sawPayer bool
	getErr   error
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if params.RequestPayer == s3types.RequestPayerRequester {
		f.sawPayer = true
	}
	idx := 0
	if params.ContinuationToken != nil {
		fmt.Sscanf(*params.ContinuationToken, "%d", &idx)
	}
	out := &s3.ListObjectsV2Output{}
	for _, key := range f.pages[idx] {
		k := key
		out.Contents = append(out.Contents, s3types.Object{Key: &k})
	}
	if idx < len(f.pages)-1 {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(fmt.Sprintf("%d", idx+1))
	} else {
		out.IsTruncated = aws.Bool(false)
	}
	return out, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if params.RequestPayer == s3types.RequestPayerRequester {
		f.sawPayer = true
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", *params.Key)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func newTestStore(f *fakeS3) *S3Store {
	return &S3Store{
		client:        f,
		bucket:        "hyperliquid-archive",
		requesterPays: true,
		log:           logger.GetLogger(),
	}
}

func TestListPaginatesAllPages(t *testing.T) {
	f := &fakeS3{pages: [][]string{
		{"asset_ctxs/20230520.csv.lz4", "asset_ctxs/20230521.csv.lz4"},
		{"asset_ctxs/20230522.csv.lz4"},
	}}
	s := newTestStore(f)

	keys, err := s.List(context.Background(), "asset_ctxs/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys across pages, got %d", len(keys))
	}
	if _, ok := keys["asset_ctxs/20230522.csv.lz4"]; !ok {
		t.Errorf("key from second page missing")
	}
	if !f.sawPayer {
		t.Errorf("requester-pays header not attached to listing")
	}
}

func TestFetchReturnsObjectBytes(t *testing.T) {
	f := &fakeS3{
		pages:   [][]string{{}},
		objects: map[string][]byte{"asset_ctxs/20230520.csv.lz4": []byte("payload")},
	}
	s := newTestStore(f)

	data, err := s.Fetch(context.Background(), "asset_ctxs/20230520.csv.lz4")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("unexpected body: %q", data)
	}
}

func TestFetchMissingKey(t *testing.T) {
	f := &fakeS3{pages: [][]string{{}}, objects: map[string][]byte{}}
	s := newTestStore(f)

	if _, err := s.Fetch(context.Background(), "asset_ctxs/19990101.csv.lz4"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
