// Package localstore implements [vectordb.Store] on plain memory with
// an optional JSON snapshot on disk.
//
// It needs no server, which makes it the default backend for desktop
// deployments and the oracle in cross-backend tests: search scans every
// document, filters run through the reference evaluator and scores are
// exact cosine similarities, so its results define what the networked
// backends must converge to.
//
// Snapshots are written atomically (temp file, fsync, rename), so a
// crash mid-write never corrupts the previous state.
package localstore
