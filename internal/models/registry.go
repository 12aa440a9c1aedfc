package models

import (
	"context"
	"sync"
	"time"
)

// ArtifactURLGenerator interface for generating signed download URLs
type ArtifactURLGenerator interface {
	GetSignedURL(ctx context.Context, path string, duration time.Duration) (string, error)
}

var (
	urlGenerator ArtifactURLGenerator
	registryMu   sync.RWMutex
)

// RegisterArtifactURLGenerator sets the URL generator for modpack archives
func RegisterArtifactURLGenerator(generator ArtifactURLGenerator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	urlGenerator = generator
}
