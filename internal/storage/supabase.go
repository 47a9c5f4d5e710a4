package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"doc-converter/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// bucketAPI is the part of Supabase Storage the store relies on.
type bucketAPI interface {
	upload(bucket, key string, file io.Reader) error
	download(bucket, key string) ([]byte, error)
	remove(bucket, key string) error
}

type supabaseBucket struct {
	client *supabase.Client
}

func (b *supabaseBucket) upload(bucket, key string, file io.Reader) error {
	_, err := b.client.Storage.UploadFile(bucket, key, file)
	return err
}

func (b *supabaseBucket) download(bucket, key string) ([]byte, error) {
	return b.client.Storage.DownloadFile(bucket, key)
}

func (b *supabaseBucket) remove(bucket, key string) error {
	_, err := b.client.Storage.RemoveFile(bucket, []string{key})
	return err
}

// SupabaseStore keeps blobs in a Supabase Storage bucket.
type SupabaseStore struct {
	api    bucketAPI
	bucket string
}

// NewSupabaseStore connects with the project URL and API key.
func NewSupabaseStore(url, key, bucket string) (*SupabaseStore, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided")
	}
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	return &SupabaseStore{api: &supabaseBucket{client: client}, bucket: bucket}, nil
}

func (s *SupabaseStore) Put(ctx context.Context, key string, file io.Reader, size int64) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.api.upload(s.bucket, key, file); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Open buffers the object; the storage client returns whole bodies.
func (s *SupabaseStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := s.api.download(s.bucket, key)
	if err != nil {
		if isSupabaseNotFound(err) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *SupabaseStore) Delete(ctx context.Context, key string) error {
	if err := s.api.remove(s.bucket, key); err != nil {
		if isSupabaseNotFound(err) {
			return domain.ErrBlobNotFound
		}
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *SupabaseStore) Location(key string) string {
	return "supabase://" + s.bucket + "/" + key
}

// The storage client reports HTTP failures as plain strings.
func isSupabaseNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}
