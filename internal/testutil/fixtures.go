// Package testutil provides shared testing utilities and helpers.
package testutil

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/funcstack/funcstack/internal/manifest"
)

// TestContextTimeout bounds contexts returned by TestContext.
const TestContextTimeout = 10 * time.Second

// ManifestBuilder provides a fluent interface for building test manifests.
type ManifestBuilder struct {
	m *manifest.Manifest
}

// NewManifestBuilder creates an empty manifest.
func NewManifestBuilder() *ManifestBuilder {
	return &ManifestBuilder{
		m: &manifest.Manifest{
			Functions: map[string]manifest.Function{},
			Routes:    manifest.RouteMap{},
		},
	}
}

// WithFunction declares a function entry.
func (b *ManifestBuilder) WithFunction(name string, fn manifest.Function) *ManifestBuilder {
	b.m.Functions[name] = fn
	return b
}

// WithDefault sets the manifest-wide default entry.
func (b *ManifestBuilder) WithDefault(fn manifest.Function) *ManifestBuilder {
	return b.WithFunction("default", fn)
}

// WithRoute binds method of path to function.
func (b *ManifestBuilder) WithRoute(path, method, function string) *ManifestBuilder {
	return b.WithCORSRoute(path, method, function, nil)
}

// WithCORSRoute binds method of path to function with an explicit CORS flag.
func (b *ManifestBuilder) WithCORSRoute(path, method, function string, cors *bool) *ManifestBuilder {
	if b.m.Routes[path] == nil {
		b.m.Routes[path] = manifest.Methods{}
	}
	b.m.Routes[path][method] = manifest.Binding{Function: function, CORS: cors}
	return b
}

// WithDefaultCORS sets the route-wide CORS flag.
func (b *ManifestBuilder) WithDefaultCORS(enabled bool) *ManifestBuilder {
	b.m.RouteDefaults.CORS = enabled
	return b
}

// Build returns the constructed Manifest.
func (b *ManifestBuilder) Build() *manifest.Manifest {
	return b.m
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// TestContext creates a test context with a reasonable timeout.
// Note: The cancel function is intentionally not returned since test contexts
// are expected to be short-lived and will be cleaned up when the test completes.
func TestContext() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), TestContextTimeout)
	_ = cancel // Silence unused warning - context will timeout automatically
	return ctx
}

// SilentLogger creates a logger that discards all output.
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LogBuffer is a concurrency-safe sink for CapturingLogger.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CapturingLogger creates a debug-level text logger writing into the returned buffer.
func CapturingLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}
