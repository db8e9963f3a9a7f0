// Package provision ensures destination namespaces and tables exist.
//
// Tables are created with every column typed TEXT and no keys, constraints,
// defaults or indexes. A table that already exists is never compared with
// the incoming column set; mismatches surface when rows are transferred.
package provision
