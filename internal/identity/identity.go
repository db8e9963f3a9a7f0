package identity

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// Resolver derives destination tables from source file names.
// Stateless and safe for concurrent use.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve maps src to (namespace, table). The table comes from the file's
// logical name; an empty namespace selects pgingest.DefaultNamespace.
func (r *Resolver) Resolve(src pgingest.SourceFile, namespace string) (pgingest.TableIdentity, error) {
	ns, err := Namespace(namespace)
	if err != nil {
		return pgingest.TableIdentity{}, err
	}

	logical := src.LogicalName
	if logical == "" {
		logical, _, _, _ = pgingest.ClassifyName(src.Name)
	}

	table, err := Normalize(logical)
	if err != nil {
		return pgingest.TableIdentity{}, fmt.Errorf("%s: %w", src.Name, err)
	}

	return pgingest.TableIdentity{Namespace: ns, Table: table}, nil
}

// Namespace validates a schema name with the same rules as table names.
// Names in the pg_ prefix are reserved by PostgreSQL.
func Namespace(name string) (string, error) {
	if name == "" {
		return pgingest.DefaultNamespace, nil
	}

	ns, err := Normalize(name)
	if err != nil {
		return "", fmt.Errorf("namespace: %w", err)
	}
	if strings.HasPrefix(ns, "pg_") {
		return "", fmt.Errorf("%w: namespace %q uses the reserved pg_ prefix", pgingest.ErrInvalidIdentifier, ns)
	}
	return ns, nil
}

// Normalize turns an arbitrary name into a lower-case PostgreSQL identifier:
//
//	"Café Menu" -> "cafe_menu"
//	"2024-sales" -> "_2024_sales"
//
// Accents are folded to their base letter and every other rune outside
// [a-z0-9_] becomes an underscore, so characters are replaced, never dropped.
// The result is at most pgingest.MaxIdentifierLength bytes.
// Empty, all-underscore and reserved results wrap pgingest.ErrInvalidIdentifier.
func Normalize(name string) (string, error) {
	folded, _, err := transform.String(foldAccents(), name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	meaningful := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			meaningful = true
		default:
			b.WriteByte('_')
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("%w: %q normalizes to an empty name", pgingest.ErrInvalidIdentifier, name)
	}
	if !meaningful {
		return "", fmt.Errorf("%w: %q has no letters or digits", pgingest.ErrInvalidIdentifier, name)
	}

	id := b.String()
	if id[0] >= '0' && id[0] <= '9' {
		id = "_" + id
	}
	if len(id) > pgingest.MaxIdentifierLength {
		id = id[:pgingest.MaxIdentifierLength]
	}

	if IsReserved(id) {
		return "", fmt.Errorf("%w: %q is a reserved word", pgingest.ErrInvalidIdentifier, id)
	}

	return id, nil
}

// NormalizeColumn applies Normalize to a header name.
func NormalizeColumn(name string) (string, error) {
	return Normalize(name)
}

// foldAccents decomposes, drops combining marks and recomposes.
// transform.Chain is stateful, so a fresh one is built per call.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

var _ pgingest.IdentityResolver = (*Resolver)(nil)
