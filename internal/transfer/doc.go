// Package transfer moves decoded rows into an existing table.
//
// Two strategies sit behind one Engine. CopyStrategy uses the store's bulk
// ingest protocol and needs a transaction implementing pgingest.BulkCopier.
// InsertStrategy sends one parameterized INSERT per row and works on any
// connection. Both name every column explicitly, so a table whose columns
// differ from the source header fails here rather than being altered.
//
// Each call to Engine.Transfer runs in one transaction that is rolled back
// on any failure.
package transfer
