package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/17khba/objaverse-download/internal/httpx"
	"github.com/17khba/objaverse-download/internal/runlog"
	"github.com/17khba/objaverse-download/internal/source"
)

// prefixLen is the number of leading UID characters used as the bucket
// directory name.
const prefixLen = 2

// Store persists fetched assets into the deterministic output layout:
//
//	model/<uid[:2]>/<uid>.glb
//	model/<uid[:2]>/<uid>.m.metadata.json
//	model/<uid[:2]>/<uid>.thumb.jpeg
//
// The layout lives in a gocloud bucket, so the output directory can be a
// local path, a file:// URL, or any supported object store. Writes for a
// given UID always target the same keys, so re-persisting a UID overwrites
// in place and never collides with sibling workers handling other UIDs.
type Store struct {
	bucket   *blob.Bucket
	root     string
	thumbs   *httpx.Client
	thumbLog io.Writer
}

// Options configures a Store.
type Options struct {
	// ThumbClient fetches thumbnail images. Default: a client with
	// default httpx options.
	ThumbClient *httpx.Client

	// ThumbLog receives non-fatal thumbnail diagnostics. Default: os.Stderr.
	ThumbLog io.Writer
}

// Open opens the output location. A plain path is treated as a local
// directory and created if absent; anything with a scheme is passed to
// gocloud as a bucket URL.
func Open(ctx context.Context, output string, opts Options) (*Store, error) {
	thumbs := opts.ThumbClient
	if thumbs == nil {
		thumbs = httpx.NewClient(httpx.DefaultOptions())
	}

	url := output
	root := output
	if !strings.Contains(output, "://") {
		abs, err := filepath.Abs(output)
		if err != nil {
			return nil, fmt.Errorf("store: resolve output dir: %w", err)
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("store: create output dir: %w", err)
		}
		root = abs
		url = "file://" + filepath.ToSlash(abs) + "?create_dir=true&metadata=skip"
	}

	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("store: open bucket %s: %w", output, err)
	}

	return &Store{
		bucket:   bucket,
		root:     strings.TrimSuffix(root, "/"),
		thumbs:   thumbs,
		thumbLog: thumbLogWriter(opts),
	}, nil
}

// OpenBucket wraps an already-open bucket, used by tests and by callers
// that manage the bucket lifecycle themselves. root is the display prefix
// recorded in artifact paths.
func OpenBucket(bucket *blob.Bucket, root string, opts Options) *Store {
	thumbs := opts.ThumbClient
	if thumbs == nil {
		thumbs = httpx.NewClient(httpx.DefaultOptions())
	}
	return &Store{
		bucket:   bucket,
		root:     strings.TrimSuffix(root, "/"),
		thumbs:   thumbs,
		thumbLog: thumbLogWriter(opts),
	}
}

// Close releases the underlying bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// Root returns the display prefix artifact paths are recorded under.
func (s *Store) Root() string {
	return s.root
}

// Persist writes the fetched asset, its metadata sidecar, and a best-effort
// thumbnail for uid, returning the produced artifact paths.
//
// The raw asset is copied from rawAsset; if rawAsset does not exist the glb
// artifact is reported as nil but the persist still succeeds, matching the
// run-log contract that only the metadata path is always present. A
// thumbnail fetch failure is logged and degrades the artifact set, never
// the outcome.
func (s *Store) Persist(ctx context.Context, uid, rawAsset string, ann source.Annotation) (runlog.Artifacts, error) {
	keyBase := path.Join("model", bucketPrefix(uid), uid)

	var artifacts runlog.Artifacts

	glbKey := keyBase + ".glb"
	copied, err := s.copyAsset(ctx, glbKey, rawAsset)
	if err != nil {
		return artifacts, fmt.Errorf("store: write asset %s: %w", uid, err)
	}
	if copied {
		p := s.artifactPath(glbKey)
		artifacts.GLB = &p
	}

	metaKey := keyBase + ".m.metadata.json"
	if err := s.writeMetadata(ctx, metaKey, ann); err != nil {
		return artifacts, fmt.Errorf("store: write metadata %s: %w", uid, err)
	}
	artifacts.Metadata = s.artifactPath(metaKey)

	if url := ann.ThumbnailURL(); url != "" {
		thumbKey := keyBase + ".thumb.jpeg"
		if err := s.fetchThumbnail(ctx, thumbKey, url); err != nil {
			fmt.Fprintf(s.thumbLog, "[objdl] thumbnail failed for %s: %v\n", uid, err)
		} else {
			p := s.artifactPath(thumbKey)
			artifacts.Thumbnail = &p
		}
	}

	return artifacts, nil
}

// copyAsset streams the local raw asset into the bucket. Returns false
// without error when the raw asset is absent.
func (s *Store) copyAsset(ctx context.Context, key, rawAsset string) (bool, error) {
	if rawAsset == "" {
		return false, nil
	}
	f, err := os.Open(rawAsset)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open raw asset: %w", err)
	}
	defer f.Close()

	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return false, err
	}
	return true, w.Close()
}

func (s *Store) writeMetadata(ctx context.Context, key string, ann source.Annotation) error {
	data, err := json.MarshalIndent(ann, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')
	return s.bucket.WriteAll(ctx, key, data, nil)
}

func (s *Store) fetchThumbnail(ctx context.Context, key, url string) error {
	var buf bytes.Buffer
	if _, err := s.thumbs.Download(ctx, url, &buf); err != nil {
		return err
	}
	return s.bucket.WriteAll(ctx, key, buf.Bytes(), nil)
}

func thumbLogWriter(opts Options) io.Writer {
	if opts.ThumbLog != nil {
		return opts.ThumbLog
	}
	return os.Stderr
}

func (s *Store) artifactPath(key string) string {
	return s.root + "/" + key
}

// bucketPrefix derives the bucket directory from a UID. UIDs shorter than
// the prefix length bucket under themselves.
func bucketPrefix(uid string) string {
	if len(uid) < prefixLen {
		return uid
	}
	return uid[:prefixLen]
}
