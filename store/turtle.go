package store

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
)

// Turtle is the graph-oriented triple encoding shared with other AFF4
// implementations: URI subjects and predicates with literal or URI
// objects. Only the subset the AFF4 universe needs is implemented:
// @prefix declarations, prefixed names, IRI references, and quoted
// literals with an optional ^^ datatype.
//
// Subjects whose aff4:type is in the suppressed set are omitted from
// output but still accepted on input.

const (
	prefixAFF4 = "aff4"
	prefixXSD  = "xsd"
)

func dumpToTurtle(s DataStore, w io.Writer) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	core := s.cache()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "@prefix %s: <%s> .\n", prefixAFF4, rdf.NamespaceAFF4)
	fmt.Fprintf(bw, "@prefix %s: <%s> .\n", prefixXSD, rdf.NamespaceXSD)

	for _, subject := range sortedURNs(snap) {
		attrs := snap[subject]
		if typeValue, ok := attrs[AttrType]; ok && core.isSuppressed(typeValue.SerializeToString()) {
			continue
		}

		fmt.Fprintf(bw, "\n<%s>\n", subject)
		attributes := sortedURNs(attrs)
		for i, attribute := range attributes {
			terminator := " ;"
			if i == len(attributes)-1 {
				terminator = " ."
			}
			fmt.Fprintf(bw, "    %s %s%s\n",
				turtlePredicate(attribute), turtleObject(attrs[attribute]), terminator)
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.Mark(errors.Wrap(err, "write turtle dump"), errors.ErrIO)
	}
	return nil
}

func turtlePredicate(attribute rdf.URN) string {
	if local, ok := strings.CutPrefix(attribute.String(), rdf.NamespaceAFF4); ok {
		return prefixAFF4 + ":" + local
	}
	return "<" + attribute.String() + ">"
}

func turtleObject(value rdf.Value) string {
	if value.TypeName() == rdf.TypeURN {
		return "<" + value.SerializeToString() + ">"
	}
	literal := quoteTurtleString(value.SerializeToString())
	if value.TypeName() == rdf.TypeXSDString {
		return literal
	}
	return literal + "^^" + value.TypeName()
}

func quoteTurtleString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func loadFromTurtle(s DataStore, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "read turtle input"), errors.ErrIO)
	}

	p := &turtleParser{
		input: string(data),
		prefixes: map[string]string{
			prefixAFF4: rdf.NamespaceAFF4,
			prefixXSD:  rdf.NamespaceXSD,
		},
	}
	return p.parse(s)
}

// turtleParser is a single-pass recursive-descent parser over the
// Turtle subset produced by dumpToTurtle.
type turtleParser struct {
	input    string
	pos      int
	prefixes map[string]string
}

func (p *turtleParser) parse(s DataStore) error {
	for {
		p.skipSpace()
		if p.eof() {
			return nil
		}

		if strings.HasPrefix(p.input[p.pos:], "@prefix") {
			if err := p.parsePrefix(); err != nil {
				return err
			}
			continue
		}

		if err := p.parseStatement(s); err != nil {
			return err
		}
	}
}

func (p *turtleParser) parsePrefix() error {
	p.pos += len("@prefix")
	p.skipSpace()

	colon := strings.Index(p.input[p.pos:], ":")
	if colon < 0 {
		return p.errorf("malformed @prefix declaration")
	}
	name := strings.TrimSpace(p.input[p.pos : p.pos+colon])
	p.pos += colon + 1
	p.skipSpace()

	iri, err := p.parseIRIRef()
	if err != nil {
		return err
	}
	p.prefixes[name] = iri

	p.skipSpace()
	if !p.consume('.') {
		return p.errorf("@prefix not terminated by '.'")
	}
	return nil
}

func (p *turtleParser) parseStatement(s DataStore) error {
	subject, err := p.parseResource()
	if err != nil {
		return errors.Wrap(err, "parse subject")
	}

	for {
		p.skipSpace()
		attribute, err := p.parseResource()
		if err != nil {
			return errors.Wrapf(err, "parse predicate for subject %s", subject)
		}

		p.skipSpace()
		value, err := p.parseObject()
		if err != nil {
			return errors.Wrapf(err, "parse object for subject %s", subject)
		}

		s.Set(rdf.URN(subject), rdf.URN(attribute), value)

		p.skipSpace()
		if p.consume(';') {
			p.skipSpace()
			// Allow a trailing ';' before the closing '.'.
			if p.consume('.') {
				return nil
			}
			continue
		}
		if p.consume('.') {
			return nil
		}
		return p.errorf("statement for %s not terminated", subject)
	}
}

// parseResource parses an IRI reference or prefixed name into a full URI.
func (p *turtleParser) parseResource() (string, error) {
	if p.peek() == '<' {
		return p.parseIRIRef()
	}
	return p.parsePrefixedName()
}

func (p *turtleParser) parseIRIRef() (string, error) {
	if !p.consume('<') {
		return "", p.errorf("expected '<'")
	}
	end := strings.Index(p.input[p.pos:], ">")
	if end < 0 {
		return "", p.errorf("unterminated IRI reference")
	}
	iri := p.input[p.pos : p.pos+end]
	p.pos += end + 1
	return iri, nil
}

func (p *turtleParser) parsePrefixedName() (string, error) {
	start := p.pos
	for !p.eof() && !isTurtleDelimiter(p.peek()) {
		p.pos++
	}
	token := p.input[start:p.pos]

	name, local, ok := strings.Cut(token, ":")
	if !ok {
		return "", p.errorf("expected IRI or prefixed name, got %q", token)
	}
	ns, ok := p.prefixes[name]
	if !ok {
		return "", p.errorf("unknown prefix %q", name)
	}
	return ns + local, nil
}

func (p *turtleParser) parseObject() (rdf.Value, error) {
	if p.peek() == '<' {
		iri, err := p.parseIRIRef()
		if err != nil {
			return nil, err
		}
		return rdf.URN(iri).AsValue(), nil
	}
	if p.peek() == '"' {
		return p.parseLiteral()
	}
	return nil, p.errorf("expected literal or IRI object")
}

func (p *turtleParser) parseLiteral() (rdf.Value, error) {
	raw, err := p.parseQuotedString()
	if err != nil {
		return nil, err
	}

	typeName := rdf.TypeXSDString
	if strings.HasPrefix(p.input[p.pos:], "^^") {
		p.pos += 2
		dt, err := p.parseResource()
		if err != nil {
			return nil, errors.Wrap(err, "parse literal datatype")
		}
		typeName = datatypeName(dt)
	}

	return rdf.ParseValue(typeName, raw)
}

func (p *turtleParser) parseQuotedString() (string, error) {
	if !p.consume('"') {
		return "", p.errorf("expected '\"'")
	}
	var b strings.Builder
	for !p.eof() {
		c := p.input[p.pos]
		p.pos++
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if p.eof() {
				return "", p.errorf("dangling escape in literal")
			}
			e := p.input[p.pos]
			p.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '"', '\\':
				b.WriteByte(e)
			default:
				return "", p.errorf("unsupported escape \\%c", e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", p.errorf("unterminated string literal")
}

func isTurtleDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ';', ',', '.', '"', '<', '>', '^':
		return true
	}
	return false
}

// datatypeName maps a datatype IRI back to the registry's type name.
// Prefixed names (xsd:integer) already match the registry directly.
func datatypeName(dt string) string {
	if local, ok := strings.CutPrefix(dt, rdf.NamespaceXSD); ok {
		return prefixXSD + ":" + local
	}
	return dt
}

func (p *turtleParser) skipSpace() {
	for !p.eof() {
		c := p.input[p.pos]
		if c == '#' {
			// Comment to end of line.
			for !p.eof() && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return
		}
		p.pos++
	}
}

func (p *turtleParser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *turtleParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *turtleParser) consume(c byte) bool {
	if !p.eof() && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *turtleParser) errorf(format string, args ...any) error {
	line := 1 + strings.Count(p.input[:p.pos], "\n")
	return errors.Mark(
		errors.Newf("turtle line %d: "+format, append([]any{line}, args...)...),
		errors.ErrIO)
}
