package source

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/17khba/objaverse-download/internal/httpx"
)

// Corpus layout relative to the base URL.
const (
	objectPathsKey = "object-paths.json.gz"
	metadataPrefix = "metadata/"
)

// HTTPOptions configures an HTTP-backed corpus source.
type HTTPOptions struct {
	// BaseURL is the corpus root, e.g. "https://corpus.example.com/v1".
	BaseURL string

	// CacheDir is where fetched raw assets are staged. Assets already
	// present in the cache are reused without a network fetch.
	CacheDir string

	// Client is the HTTP client used for all corpus requests.
	// Default: httpx.NewClient(httpx.DefaultOptions()).
	Client *httpx.Client
}

// HTTPSource reads the corpus over HTTP.
//
// The UID index (one gzipped JSON object mapping UID to storage path) is
// fetched once and memoized for the lifetime of the instance. The index is
// deliberately not cached in package state: every consumer holds its own
// HTTPSource, and tests substitute a fixed fake behind the Source interface.
type HTTPSource struct {
	opts   HTTPOptions
	client *httpx.Client

	mu     sync.Mutex
	order  []string
	paths  map[string]string
	idxErr error
	loaded bool
}

// NewHTTPSource creates a corpus source rooted at opts.BaseURL.
func NewHTTPSource(opts HTTPOptions) (*HTTPSource, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("source: base URL is required")
	}
	if opts.CacheDir == "" {
		return nil, fmt.Errorf("source: cache dir is required")
	}
	client := opts.Client
	if client == nil {
		client = httpx.NewClient(httpx.DefaultOptions())
	}
	return &HTTPSource{opts: opts, client: client}, nil
}

// UIDs returns the corpus enumeration in index-file order.
func (s *HTTPSource) UIDs(ctx context.Context) ([]string, error) {
	if err := s.loadIndex(ctx); err != nil {
		return nil, err
	}
	return s.order, nil
}

// ObjectPaths returns the UID to storage-path mapping.
func (s *HTTPSource) ObjectPaths(ctx context.Context) (map[string]string, error) {
	if err := s.loadIndex(ctx); err != nil {
		return nil, err
	}
	return s.paths, nil
}

// loadIndex fetches and parses the object-paths index exactly once.
func (s *HTTPSource) loadIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.idxErr
	}
	s.loaded = true

	body, err := s.client.Get(ctx, s.url(objectPathsKey))
	if err != nil {
		s.idxErr = fmt.Errorf("source: fetch object paths: %w", err)
		return s.idxErr
	}
	defer body.Close()

	order, paths, err := parseOrderedPaths(body)
	if err != nil {
		s.idxErr = fmt.Errorf("source: parse object paths: %w", err)
		return s.idxErr
	}

	s.order = order
	s.paths = paths
	return nil
}

// parseOrderedPaths decodes a gzipped JSON object of UID to path entries,
// preserving the file's key order. Preserving order matters: the index file
// order is the shard coordinate system (see Source).
func parseOrderedPaths(r io.Reader) ([]string, map[string]string, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	dec := json.NewDecoder(gz)

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var order []string
	paths := make(map[string]string)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		uid, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected string key, got %v", keyTok)
		}
		var p string
		if err := dec.Decode(&p); err != nil {
			return nil, nil, fmt.Errorf("path for %s: %w", uid, err)
		}
		order = append(order, uid)
		paths[uid] = p
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	return order, paths, nil
}

// Annotations bulk-loads metadata for uids. Records are stored per path
// group (one gzipped JSON object per "glbs/<group>/" directory), so the
// call fetches each referenced group file once regardless of how many UIDs
// fall into it.
func (s *HTTPSource) Annotations(ctx context.Context, uids []string) (map[string]Annotation, error) {
	paths, err := s.ObjectPaths(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]string)
	for _, uid := range uids {
		p, ok := paths[uid]
		if !ok {
			continue
		}
		if g := pathGroup(p); g != "" {
			groups[g] = append(groups[g], uid)
		}
	}

	annotations := make(map[string]Annotation, len(uids))
	for group, members := range groups {
		records, err := s.fetchGroupMetadata(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("source: metadata group %s: %w", group, err)
		}
		for _, uid := range members {
			if ann, ok := records[uid]; ok {
				annotations[uid] = ann
			}
		}
	}
	return annotations, nil
}

func (s *HTTPSource) fetchGroupMetadata(ctx context.Context, group string) (map[string]Annotation, error) {
	body, err := s.client.Get(ctx, s.url(metadataPrefix+group+".json.gz"))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	gz, err := gzip.NewReader(body)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	var records map[string]Annotation
	if err := json.NewDecoder(gz).Decode(&records); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return records, nil
}

// pathGroup extracts the bucket group from a storage path:
// "glbs/000-023/<uid>.glb" yields "000-023".
func pathGroup(p string) string {
	parts := strings.Split(p, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// Objects fetches raw assets for uids with at most workers parallel
// fetches. Assets land in the cache dir mirroring the corpus path layout;
// a UID that cannot be fetched is left out of the result.
func (s *HTTPSource) Objects(ctx context.Context, uids []string, workers int) (map[string]string, error) {
	paths, err := s.ObjectPaths(ctx)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	fetched := make(map[string]string, len(uids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, uid := range uids {
		uid := uid
		storagePath, ok := paths[uid]
		if !ok {
			continue
		}
		g.Go(func() error {
			local, err := s.fetchObject(gctx, storagePath)
			if err != nil {
				// Per-item fetch failures surface as absence from the
				// result; only cancellation aborts the batch.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return nil
			}
			mu.Lock()
			fetched[uid] = local
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fetched, nil
}

// fetchObject downloads one asset into the cache, or reuses a previously
// cached copy. The download goes to a uniquely named staging file first so
// a crash mid-write can never leave a truncated file at the final path.
func (s *HTTPSource) fetchObject(ctx context.Context, storagePath string) (string, error) {
	local := filepath.Join(s.opts.CacheDir, filepath.FromSlash(storagePath))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	staging := local + ".part-" + uuid.NewString()
	f, err := os.Create(staging)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}

	_, err = s.client.Download(ctx, s.url(storagePath), f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(staging)
		return "", fmt.Errorf("download %s: %w", storagePath, err)
	}

	if err := os.Rename(staging, local); err != nil {
		os.Remove(staging)
		return "", fmt.Errorf("finalize %s: %w", storagePath, err)
	}
	return local, nil
}

func (s *HTTPSource) url(key string) string {
	return strings.TrimSuffix(s.opts.BaseURL, "/") + "/" + path.Clean(key)
}
