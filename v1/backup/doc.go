// Package backup snapshots vector store collections to S3-compatible
// object storage and restores them.
//
// A snapshot is the store's full collection export (documents with
// embeddings plus the collection dimension) serialized as gzipped JSON
// and uploaded under <prefix>/<collection>/<timestamp>.json.gz.
//
// # Usage
//
//	snap, err := backup.New(backup.FromEndpoint("minio.internal:9000").
//	    WithCredentials(accessKey, secretKey))
//	if err != nil {
//	    ...
//	}
//
//	key, err := snap.Snapshot(ctx, store, "documents")
//	...
//	err = snap.Restore(ctx, store, key)
//
// Snapshot and Restore work with any store implementing the exporter
// and importer capability interfaces; stores without them return
// ErrNotSupported. Restoring replaces the target collection wholesale.
//
// The bucket is created on first use when missing. Listing is newest
// first because object keys embed the snapshot timestamp.
package backup
