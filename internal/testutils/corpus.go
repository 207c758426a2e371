package testutils

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/17khba/objaverse-download/internal/source"
)

// CorpusEntry describes one UID served by a CorpusServer. A nil Annotation
// leaves the UID out of its group's metadata file; a nil Asset makes the
// asset request 404.
type CorpusEntry struct {
	UID        string
	Group      string
	Annotation source.Annotation
	Asset      []byte
}

// CorpusServer is an httptest server presenting the corpus HTTP layout:
// a gzipped ordered object-paths index, per-group gzipped metadata files,
// and raw assets under glbs/. Requests are counted per path so tests can
// assert caching and memoization.
type CorpusServer struct {
	srv     *httptest.Server
	entries []CorpusEntry

	mu   sync.Mutex
	hits map[string]int
}

// StartCorpusServer serves entries in the given enumeration order until the
// test ends.
func StartCorpusServer(t *testing.T, entries []CorpusEntry) *CorpusServer {
	t.Helper()
	c := &CorpusServer{
		entries: entries,
		hits:    make(map[string]int),
	}
	c.srv = httptest.NewServer(http.HandlerFunc(c.handle))
	t.Cleanup(c.srv.Close)
	return c
}

// URL returns the corpus base URL.
func (c *CorpusServer) URL() string {
	return c.srv.URL
}

// Hits returns how many requests the given path has received.
func (c *CorpusServer) Hits(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

func (c *CorpusServer) handle(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.hits[r.URL.Path]++
	c.mu.Unlock()

	switch {
	case r.URL.Path == "/object-paths.json.gz":
		c.serveIndex(w)
	case strings.HasPrefix(r.URL.Path, "/metadata/") && strings.HasSuffix(r.URL.Path, ".json.gz"):
		group := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/metadata/"), ".json.gz")
		c.serveMetadata(w, group)
	case strings.HasPrefix(r.URL.Path, "/glbs/"):
		c.serveAsset(w, r.URL.Path)
	default:
		http.NotFound(w, r)
	}
}

// serveIndex writes the index with entry order preserved, since the index
// file's key order is the enumeration the source must report.
func (c *CorpusServer) serveIndex(w http.ResponseWriter) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(e.UID)
		val, _ := json.Marshal(fmt.Sprintf("glbs/%s/%s.glb", e.Group, e.UID))
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	writeGzipped(w, buf.Bytes())
}

func (c *CorpusServer) serveMetadata(w http.ResponseWriter, group string) {
	records := make(map[string]source.Annotation)
	for _, e := range c.entries {
		if e.Group == group && e.Annotation != nil {
			records[e.UID] = e.Annotation
		}
	}
	data, err := json.Marshal(records)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeGzipped(w, data)
}

func (c *CorpusServer) serveAsset(w http.ResponseWriter, urlPath string) {
	for _, e := range c.entries {
		if urlPath == fmt.Sprintf("/glbs/%s/%s.glb", e.Group, e.UID) {
			if e.Asset == nil {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			w.Write(e.Asset)
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func writeGzipped(w http.ResponseWriter, data []byte) {
	gz := gzip.NewWriter(w)
	gz.Write(data)
	gz.Close()
}
