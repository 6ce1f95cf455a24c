package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrInvalidMediaID = errors.New("invalid media id")

// MediaFile describes an uploaded object. ID is what Delete takes.
type MediaFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

// MediaStore stores project files and images uploaded from the dashboard.
type MediaStore interface {
	List(ctx context.Context) ([]MediaFile, error)
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (*MediaFile, error)
	Delete(ctx context.Context, id string) error
}

// sanitizeFilename keeps the base name, replaces spaces and stamps it so
// repeated uploads of the same file do not collide.
func sanitizeFilename(name string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = "upload"
	}
	base = strings.ReplaceAll(base, " ", "_")
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem = "upload"
	}
	return fmt.Sprintf("%s_%d%s", stem, now.Unix(), ext)
}

// LocalMediaStore writes uploads to a directory served under PublicURL.
type LocalMediaStore struct {
	Dir       string
	PublicURL string
	now       func() time.Time
}

func NewLocalMediaStore(dir, publicURL string) *LocalMediaStore {
	return &LocalMediaStore{
		Dir:       dir,
		PublicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

func (s *LocalMediaStore) Upload(_ context.Context, name string, r io.Reader, size int64, contentType string) (*MediaFile, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, err
	}
	dst, filename, err := s.create(sanitizeFilename(name, s.now()))
	if err != nil {
		return nil, err
	}

	written, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst.Name())
		return nil, err
	}
	if size <= 0 {
		size = written
	}

	return &MediaFile{
		ID:          filename,
		Name:        filename,
		URL:         s.PublicURL + "/" + filename,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// create opens filename exclusively. When the name is taken, a short random
// suffix is added before the extension.
func (s *LocalMediaStore) create(filename string) (*os.File, string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		candidate := filename
		if attempt > 0 {
			ext := filepath.Ext(filename)
			candidate = strings.TrimSuffix(filename, ext) + "_" + uuid.NewString()[:8] + ext
		}
		fullPath := SafeJoin(s.Dir, candidate)
		if fullPath == "" {
			return nil, "", ErrInvalidMediaID
		}
		f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return f, candidate, nil
	}
	return nil, "", fmt.Errorf("create %s: %w", filename, os.ErrExist)
}

func (s *LocalMediaStore) List(_ context.Context) ([]MediaFile, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []MediaFile{}, nil
		}
		return nil, err
	}
	files := make([]MediaFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, MediaFile{
			ID:   e.Name(),
			Name: e.Name(),
			URL:  s.PublicURL + "/" + e.Name(),
			Size: info.Size(),
		})
	}
	return files, nil
}

// Delete removes the file. Deleting something already gone is not an error.
func (s *LocalMediaStore) Delete(_ context.Context, id string) error {
	if id == "" || filepath.Base(id) != id {
		return ErrInvalidMediaID
	}
	fullPath := SafeJoin(s.Dir, id)
	if fullPath == "" {
		return ErrInvalidMediaID
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// objectAPI is the part of the S3 client the media store uses.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

type S3Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL prefixes object keys in returned URLs. Defaults to Endpoint/Bucket.
	PublicURL string
}

// S3MediaStore keeps uploads in an S3-compatible bucket (AWS, MinIO, R2).
type S3MediaStore struct {
	client    objectAPI
	bucket    string
	publicURL string
	prefix    string
}

func NewS3MediaStore(ctx context.Context, opts S3Options) (*S3MediaStore, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		if opts.Endpoint != "" {
			publicURL = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
		}
	}
	return newS3MediaStore(client, opts.Bucket, publicURL), nil
}

func newS3MediaStore(client objectAPI, bucket, publicURL string) *S3MediaStore {
	return &S3MediaStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		prefix:    "uploads/",
	}
}

func (s *S3MediaStore) List(ctx context.Context) ([]MediaFile, error) {
	files := []MediaFile{}
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			files = append(files, MediaFile{
				ID:   key,
				Name: objectName(key, s.prefix),
				URL:  s.publicURL + "/" + key,
				Size: aws.ToInt64(obj.Size),
			})
		}
	}
	return files, nil
}

// objectName strips the prefix and uuid from a key written by Upload.
func objectName(key, prefix string) string {
	name := strings.TrimPrefix(key, prefix)
	if len(name) > 37 && name[36] == '-' {
		if _, err := uuid.Parse(name[:36]); err == nil {
			return name[37:]
		}
	}
	return name
}

func (s *S3MediaStore) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (*MediaFile, error) {
	base := strings.ReplaceAll(filepath.Base(strings.ReplaceAll(name, "\\", "/")), " ", "_")
	key := s.prefix + uuid.NewString() + "-" + base

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	return &MediaFile{
		ID:          key,
		Name:        base,
		URL:         s.publicURL + "/" + key,
		Size:        size,
		ContentType: contentType,
	}, nil
}

func (s *S3MediaStore) Delete(ctx context.Context, id string) error {
	if !strings.HasPrefix(id, s.prefix) || strings.Contains(id, "..") {
		return ErrInvalidMediaID
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}
