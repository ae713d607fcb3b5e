package manualstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
)

func TestSplitObjectLink(t *testing.T) {
	cases := []struct {
		link   string
		bucket string
		key    string
		ok     bool
	}{
		{link: "minio://manuals/perceuse.pdf", bucket: "manuals", key: "perceuse.pdf", ok: true},
		{link: "minio://manuals/fr/perceuse.pdf", bucket: "manuals", key: "fr/perceuse.pdf", ok: true},
		{link: "https://manuel-perceuse.fr", ok: false},
		{link: diagnostic.ManualLinkUnavailable, ok: false},
		{link: "minio://manuals", ok: false},
		{link: "minio:///perceuse.pdf", ok: false},
	}

	for _, tc := range cases {
		bucket, key, ok := splitObjectLink(tc.link)
		require.Equal(t, tc.ok, ok, tc.link)
		require.Equal(t, tc.bucket, bucket, tc.link)
		require.Equal(t, tc.key, key, tc.link)
	}
}

func TestMinioLibraryPassthrough(t *testing.T) {
	library, err := NewMinioLibrary("http://localhost:9000", "access", "secret", "", time.Minute, testLogger())
	require.NoError(t, err)

	resolved, err := library.Resolve(context.Background(), "https://manuel-perceuse.fr")
	require.NoError(t, err)
	require.Equal(t, "https://manuel-perceuse.fr", resolved)

	resolved, err = library.Resolve(context.Background(), diagnostic.ManualLinkUnavailable)
	require.NoError(t, err)
	require.Equal(t, diagnostic.ManualLinkUnavailable, resolved)
}

func TestMinioLibraryPresignsObjectLinks(t *testing.T) {
	library, err := NewMinioLibrary("http://localhost:9000", "access", "secret", "", time.Minute, testLogger())
	require.NoError(t, err)

	// Presigning is local computation; no object store is contacted.
	resolved, err := library.Resolve(context.Background(), "minio://manuals/perceuse.pdf")
	require.NoError(t, err)
	require.Contains(t, resolved, "manuals/perceuse.pdf")
	require.Contains(t, resolved, "X-Amz-Signature")
}

func TestStaticLibrary(t *testing.T) {
	library := NewStaticLibrary()

	resolved, err := library.Resolve(context.Background(), "minio://manuals/perceuse.pdf")
	require.NoError(t, err)
	require.Equal(t, "minio://manuals/perceuse.pdf", resolved)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
