// Package ingestion turns press-release sources into embedded fact records.
//
// A Source yields raw Statements: CSVSource reads the corpus file written by
// the scraper and HTMLSource reads a directory of saved press-release pages.
// The Pipeline then:
//   - assigns IDs (the numeric corpus id, or a content hash) and drops duplicates
//   - runs the claim extractor over each statement
//   - embeds statements in batches on a worker pool, retrying with backoff
//   - checks and normalizes every vector for the configured metric
//
// The result is handed to a storage.SnapshotRepository and published as a
// corpus.Snapshot by the caller. A failed build publishes nothing.
package ingestion
