// Package testutils provides shared test infrastructure: a scriptable fake
// corpus source for unit tests and container-backed helpers for integration
// tests.
package testutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/17khba/objaverse-download/internal/source"
)

// FakeSource is an in-memory corpus implementing source.Source. Failures
// are scripted per UID, and every call is counted so tests can assert that
// short-circuit paths never reach the fetch adapter.
type FakeSource struct {
	dir string

	mu          sync.Mutex
	order       []string
	paths       map[string]string
	meta        map[string]source.Annotation
	assets      map[string][]byte
	failFetches map[string]int
	hangFetches map[string]bool
	fetchCalls  map[string]int

	annotationCalls int

	// UIDsErr and AnnotationsErr, when set, fail the corresponding call.
	UIDsErr        error
	AnnotationsErr error
}

// NewFakeSource creates an empty fake corpus staging assets under a test
// temp dir.
func NewFakeSource(t *testing.T) *FakeSource {
	t.Helper()
	return &FakeSource{
		dir:         t.TempDir(),
		paths:       make(map[string]string),
		meta:        make(map[string]source.Annotation),
		assets:      make(map[string][]byte),
		failFetches: make(map[string]int),
		hangFetches: make(map[string]bool),
		fetchCalls:  make(map[string]int),
	}
}

// Add registers a UID in enumeration order. group becomes the storage-path
// bucket ("glbs/<group>/<uid>.glb"). A nil annotation leaves the UID out of
// the metadata batch; a nil asset makes every fetch of it fail.
func (f *FakeSource) Add(uid, group string, ann source.Annotation, asset []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, uid)
	f.paths[uid] = fmt.Sprintf("glbs/%s/%s.glb", group, uid)
	if ann != nil {
		f.meta[uid] = ann
	}
	if asset != nil {
		f.assets[uid] = asset
	}
}

// FailFetches makes the first n fetches of uid fail before it starts
// succeeding.
func (f *FakeSource) FailFetches(uid string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFetches[uid] = n
}

// HangFetches makes every fetch of uid block until the caller's context is
// cancelled, simulating a stalled transfer.
func (f *FakeSource) HangFetches(uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hangFetches[uid] = true
}

// FetchCalls returns how many times uid has been requested from Objects.
func (f *FakeSource) FetchCalls(uid string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls[uid]
}

// AnnotationCalls returns how many times Annotations has been invoked.
func (f *FakeSource) AnnotationCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.annotationCalls
}

// UIDs implements source.Source.
func (f *FakeSource) UIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UIDsErr != nil {
		return nil, f.UIDsErr
	}
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out, nil
}

// ObjectPaths implements source.Source.
func (f *FakeSource) ObjectPaths(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.paths))
	for k, v := range f.paths {
		out[k] = v
	}
	return out, nil
}

// Annotations implements source.Source.
func (f *FakeSource) Annotations(ctx context.Context, uids []string) (map[string]source.Annotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.annotationCalls++
	if f.AnnotationsErr != nil {
		return nil, f.AnnotationsErr
	}
	out := make(map[string]source.Annotation, len(uids))
	for _, uid := range uids {
		if ann, ok := f.meta[uid]; ok {
			out[uid] = ann
		}
	}
	return out, nil
}

// Objects implements source.Source. Fetched assets are materialized as real
// files so the persister can copy them.
func (f *FakeSource) Objects(ctx context.Context, uids []string, workers int) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	hang := false
	for _, uid := range uids {
		if f.hangFetches[uid] {
			hang = true
		}
	}
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]string, len(uids))
	for _, uid := range uids {
		f.fetchCalls[uid]++
		if f.fetchCalls[uid] <= f.failFetches[uid] {
			continue
		}
		data, ok := f.assets[uid]
		if !ok {
			continue
		}
		local := filepath.Join(f.dir, uid+".glb")
		if err := os.WriteFile(local, data, 0o644); err != nil {
			return nil, err
		}
		out[uid] = local
	}
	return out, nil
}
