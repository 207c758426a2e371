// Package store persists fetched assets into the mirror's on-disk layout.
//
// Each UID maps to a bucket directory named by its two-character prefix
// under model/, holding the raw asset, a pretty-printed JSON metadata
// sidecar, and an optional thumbnail. Keys are deterministic, so persisting
// a UID twice overwrites the same artifacts; there is no locking because
// distinct UIDs never share target keys. The layout is storage-agnostic via
// gocloud.dev/blob: a plain directory for normal use, s3:// for bucket
// mirrors, mem:// in tests. The fileblob driver creates intermediate
// directories itself, which also absorbs concurrent creation by sibling
// workers.
package store
