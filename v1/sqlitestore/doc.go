// Package sqlitestore implements [vectordb.Store] on an embedded
// SQLite database.
//
// It targets the same deployments as the local store but adds durable
// transactional writes and multi-process access through a single .db
// file. Similarity is computed in process over candidate rows; there
// is no vector index, so it fits collections in the tens of thousands
// of documents, not millions.
//
// Equality predicates are compiled into the SQL candidate query with
// json_extract. Other operators run client-side through the shared
// evaluator, which also re-checks pushed-down filters whenever a
// verbatim native fragment is supplied.
package sqlitestore
