package diagnostic

import "context"

// ManualLibrary resolves a stored manual link into something the caller can
// open. Links that point into the manual object store are presigned; plain
// URLs and the ManualLinkUnavailable sentinel pass through unchanged.
type ManualLibrary interface {
	Resolve(ctx context.Context, link string) (string, error)
}
