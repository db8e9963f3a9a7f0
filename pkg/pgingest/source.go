package pgingest

import "strings"

// Format is the delimited text layout of a source file.
type Format string

const (
	FormatCSV Format = "csv"
	FormatTSV Format = "tsv"
)

// Delimiter returns the field separator for the format.
func (f Format) Delimiter() rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}

// Compression is the transport-level wrapper around a source file.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

var formatExtensions = map[string]Format{
	".csv": FormatCSV,
	".tsv": FormatTSV,
}

var compressionExtensions = map[string]Compression{
	".gz":  CompressionGzip,
	".zst": CompressionZstd,
}

// SourceFile is a file selected for ingestion. Immutable once enumerated.
type SourceFile struct {
	// Path is the location handed to the filesystem provider.
	Path string

	// Name is the base file name, e.g. "patients.csv.gz".
	Name string

	// LogicalName is Name without its compression and format extensions, e.g. "patients".
	LogicalName string

	Format      Format
	Compression Compression
	Size        int64
}

// Compressed reports whether the file carries a compression wrapper.
func (s SourceFile) Compressed() bool {
	return s.Compression != CompressionNone
}

// ClassifyName splits a file name into its logical name, format and compression.
// At most one compression suffix and then one format suffix are stripped,
// case-insensitively. ok is false when the name has no recognized format suffix.
//
//	ClassifyName("patients.csv.gz") // "patients", csv, gzip, true
//	ClassifyName("report.v2.TSV")   // "report.v2", tsv, none, true
//	ClassifyName("notes.txt")       // "", "", none, false
func ClassifyName(name string) (logical string, format Format, compression Compression, ok bool) {
	rest := name

	if ext := lowerExt(rest); ext != "" {
		if c, found := compressionExtensions[ext]; found {
			compression = c
			rest = rest[:len(rest)-len(ext)]
		}
	}

	ext := lowerExt(rest)
	f, found := formatExtensions[ext]
	if !found {
		return "", "", CompressionNone, false
	}

	return rest[:len(rest)-len(ext)], f, compression, true
}

func lowerExt(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}
