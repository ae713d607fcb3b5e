package manualstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
)

// LinkScheme marks manual links that live in the object store rather than on
// the public web, in the form minio://bucket/object-key.
const LinkScheme = "minio://"

const defaultURLExpiry = 15 * time.Minute

// MinioLibrary resolves object-store manual links into presigned GET URLs.
// Anything else (plain URLs, the unavailable sentinel) passes through.
type MinioLibrary struct {
	client *minio.Client
	expiry time.Duration
	logger *slog.Logger
}

// NewMinioLibrary constructs the library against an S3-compatible endpoint.
func NewMinioLibrary(endpoint, accessKey, secretKey, region string, expiry time.Duration, logger *slog.Logger) (*MinioLibrary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := strings.HasPrefix(strings.ToLower(endpoint), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init manual store client: %w", err)
	}
	return &MinioLibrary{
		client: client,
		expiry: expiry,
		logger: logger.With("component", "manualstore.minio"),
	}, nil
}

// Resolve implements diagnostic.ManualLibrary.
func (l *MinioLibrary) Resolve(ctx context.Context, link string) (string, error) {
	bucket, key, ok := splitObjectLink(link)
	if !ok {
		return link, nil
	}
	presigned, err := l.client.PresignedGetObject(ctx, bucket, key, l.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign manual %q: %w", link, err)
	}
	l.logger.Debug("manual link presigned", "bucket", bucket, "key", key)
	return presigned.String(), nil
}

func splitObjectLink(link string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(link, LinkScheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(link, LinkScheme)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func sanitizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimSuffix(endpoint, "/")
}

var _ diagnostic.ManualLibrary = (*MinioLibrary)(nil)
