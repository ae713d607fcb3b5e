package manualstore

import (
	"context"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
)

// StaticLibrary returns stored manual links unchanged. Used when no object
// store is configured.
type StaticLibrary struct{}

// NewStaticLibrary constructs the passthrough library.
func NewStaticLibrary() *StaticLibrary {
	return &StaticLibrary{}
}

// Resolve implements diagnostic.ManualLibrary.
func (*StaticLibrary) Resolve(_ context.Context, link string) (string, error) {
	return link, nil
}

var _ diagnostic.ManualLibrary = (*StaticLibrary)(nil)
