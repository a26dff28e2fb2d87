// Package rdf provides the RDF primitives of the AFF4 universe: the URN
// identifier type and the typed values stored against it.
//
// Every addressable entity (stream, volume, image) is named by a URN, and
// everything known about an entity is a set of (subject, attribute, value)
// triples where subject and attribute are URNs and value is a typed literal
// or another URN.
package rdf

import (
	"strings"

	"github.com/google/uuid"
)

// Standard AFF4 namespace prefixes.
const (
	// Prefix is the scheme prefix for minted AFF4 identifiers.
	Prefix = "aff4://"

	// NamespaceAFF4 is the URI namespace of well-known AFF4 attributes.
	NamespaceAFF4 = "http://aff4.org/Schema#"

	// NamespaceXSD is the URI namespace of XSD literal datatypes.
	NamespaceXSD = "http://www.w3.org/2001/XMLSchema#"
)

// URN is a universal identifier for an entity in the AFF4 space.
//
// A URN is an immutable string in canonical form; equality is string
// equality. URNs are the sole key space for both the triple store and
// the object cache.
type URN string

// NewURN mints a fresh unique identifier of the form aff4://<uuid>.
// Volumes and images that have no natural name are identified this way.
func NewURN() URN {
	return URN(Prefix + uuid.New().String())
}

func (u URN) String() string {
	return string(u)
}

// Components is the structural decomposition of a URN.
type Components struct {
	Scheme   string
	Path     string
	Fragment string
}

// Parse decomposes the URN into scheme, path and fragment.
//
// Identifiers with no scheme separator are treated as file paths: the
// scheme defaults to "file" so that a bare path like "image.dd" resolves
// to the file-backed handler via scheme fallback.
func (u URN) Parse() Components {
	s := string(u)

	var c Components
	if i := strings.Index(s, "#"); i >= 0 {
		c.Fragment = s[i+1:]
		s = s[:i]
	}

	if i := strings.Index(s, "://"); i >= 0 {
		c.Scheme = s[:i]
		c.Path = s[i+3:]
	} else {
		c.Scheme = "file"
		c.Path = s
	}

	return c
}

// Scheme returns the URN's scheme component.
func (u URN) Scheme() string {
	return u.Parse().Scheme
}

// Append produces a child URN by concatenating a path segment.
func (u URN) Append(segment string) URN {
	base := strings.TrimRight(string(u), "/")
	segment = strings.TrimLeft(segment, "/")
	return URN(base + "/" + segment)
}
