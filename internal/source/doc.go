// Package source defines the asset-corpus interface and its HTTP
// implementation.
//
// The corpus exposes four views: an ordered UID enumeration, a UID to
// storage-path index, batched metadata retrieval, and batched raw-asset
// retrieval with a worker bound. The orchestration layer depends only on
// the [Source] interface so tests can run against a fixed in-memory corpus.
//
// # Remote layout
//
//	{base}/object-paths.json.gz       ordered {uid: "glbs/<group>/<uid>.glb"}
//	{base}/metadata/<group>.json.gz   {uid: annotation}
//	{base}/glbs/<group>/<uid>.glb     raw assets
//
// # Ordering caveat
//
// Shard boundaries are indexes into the enumeration returned by UIDs, so a
// shard range is only meaningful against the corpus release it was computed
// from. The index is parsed order-preservingly and memoized per instance;
// nothing here can enforce stability across corpus releases.
package source
