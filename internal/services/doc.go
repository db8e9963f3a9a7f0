// Package services orchestrates ingestion runs.
//
// IngestionService walks the files of a directory strictly one at a time.
// Each file becomes a LoadJob that owns one file handle and one pooled
// connection for its whole lifetime:
//
//	resolve identity -> collision check -> decode header -> provision -> transfer
//
// A failing stage ends only that job; its error is recorded in the
// RunSummary and the run moves on. Jobs are never retried.
package services
