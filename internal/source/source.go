package source

import "context"

// Annotation is the metadata record attached to one UID. The corpus schema
// is open-ended, so the record is kept as decoded JSON and written back out
// verbatim as the metadata sidecar.
type Annotation map[string]any

// ThumbnailURL extracts the thumbnail URL of the record's first entry, or ""
// when the record carries none. Corpus records have used three shapes over
// time: a list of url-bearing objects, a single url-bearing object, and an
// object wrapping an "images" list.
func (a Annotation) ThumbnailURL() string {
	switch t := a["thumbnails"].(type) {
	case []any:
		return firstURL(t)
	case map[string]any:
		if url, ok := t["url"].(string); ok && url != "" {
			return url
		}
		if images, ok := t["images"].([]any); ok {
			return firstURL(images)
		}
	}
	return ""
}

// firstURL consults only the first entry. A malformed or url-less first
// entry yields no thumbnail; later entries are never inspected, matching
// what consumers of this corpus have always done.
func firstURL(entries []any) string {
	if len(entries) == 0 {
		return ""
	}
	rec, ok := entries[0].(map[string]any)
	if !ok {
		return ""
	}
	url, _ := rec["url"].(string)
	return url
}

// Source is the external asset corpus. Implementations must be safe for
// concurrent use.
//
// The order of UIDs returned by UIDs is the shard coordinate system: shard
// boundaries are indexes into it, so it must be stable across calls within
// one process. Stability across corpus releases is not guaranteed; shard
// ranges recorded against one release may select different UIDs against
// another.
type Source interface {
	// UIDs returns the ordered enumeration of every known UID.
	UIDs(ctx context.Context) ([]string, error)

	// ObjectPaths returns the backing storage path for each UID, used for
	// prefix filtering (paths look like "glbs/<group>/<uid>.glb").
	ObjectPaths(ctx context.Context) (map[string]string, error)

	// Annotations bulk-loads metadata for the given UIDs. UIDs unknown to
	// the corpus are simply absent from the result; a transport or parse
	// error fails the whole call.
	Annotations(ctx context.Context, uids []string) (map[string]Annotation, error)

	// Objects fetches the raw assets for the given UIDs with at most
	// workers parallel fetches, returning a local file path for every UID
	// it could fetch. Absence from the result means that UID failed.
	Objects(ctx context.Context, uids []string, workers int) (map[string]string, error)
}
