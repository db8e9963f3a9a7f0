// Package files groups the source-side packages of an ingestion run:
//   - filesystem: Filesystem abstraction interfaces and implementations (OS and in-memory)
//   - scanner: Source file discovery (the enumerator)
//   - tabular: Header and row decoding, including transport decompression
//
// # Usage
//
//	import (
//	    "github.com/vvka-141/pgingest/internal/files/filesystem"
//	    "github.com/vvka-141/pgingest/internal/files/scanner"
//	    "github.com/vvka-141/pgingest/internal/files/tabular"
//	)
//
//	fsProvider := filesystem.NewOSFileSystem()
//	sources, err := scanner.NewScannerWithFS(fsProvider).Enumerate("./exports")
//	if err != nil {
//	    return err
//	}
//
//	decoder := tabular.NewDecoder(fsProvider)
//	for src := range sources {
//	    reader, err := decoder.Open(src)
//	    ...
//	}
package files
