// Package tabular decodes delimited text sources into a header ColumnSet
// and a stream of string rows.
//
// Supported layouts are CSV (comma) and TSV (tab) with standard double-quote
// quoting, optionally wrapped in gzip or zstd. The first record is the
// header: a leading UTF-8 BOM and surrounding spaces are removed, and empty,
// over-long or duplicate names are rejected. Every data row must have exactly
// as many fields as the header. Empty fields stay empty strings.
//
// All failures, including I/O and decompression errors, wrap pgingest.ErrDecode.
package tabular
