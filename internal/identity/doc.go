// Package identity resolves the destination table of each source file and
// owns the single identifier validation path used for tables, namespaces
// and (optionally) columns.
//
// Resolution is a pure function of the file's logical name and the
// namespace, so distinct files that differ only by case or punctuation map
// to the same identity. Detecting such collisions is left to the caller,
// which sees every file of a run.
package identity
