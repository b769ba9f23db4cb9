package rdf

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	krdf "github.com/knakk/rdf"
)

// ErrSyntax is returned when serialized RDF cannot be decoded.
var ErrSyntax = errors.New("rdf syntax error")

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```\\s*$")

// ParseTurtle decodes a Turtle document. Surrounding markdown code fences are
// tolerated since generated Turtle often arrives wrapped in them.
func ParseTurtle(src string) (*Graph, error) {
	src = strings.TrimSpace(src)
	if m := fenceRe.FindStringSubmatch(src); m != nil {
		src = m[1]
	}
	return decode(strings.NewReader(src), krdf.Turtle)
}

// ParseNTriples decodes an N-Triples document.
func ParseNTriples(r io.Reader) (*Graph, error) {
	return decode(r, krdf.NTriples)
}

func decode(r io.Reader, f krdf.Format) (*Graph, error) {
	dec := krdf.NewTripleDecoder(r, f)
	g := NewGraph()
	for {
		kt, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		t, err := fromKnakk(kt)
		if err != nil {
			return nil, err
		}
		g.Add(t)
	}
	return g, nil
}

func fromKnakk(kt krdf.Triple) (Triple, error) {
	s, err := convertTerm(kt.Subj)
	if err != nil {
		return Triple{}, err
	}
	p, err := convertTerm(kt.Pred)
	if err != nil {
		return Triple{}, err
	}
	o, err := convertTerm(kt.Obj)
	if err != nil {
		return Triple{}, err
	}
	return Triple{S: s, P: p, O: o}, nil
}

func convertTerm(t krdf.Term) (Term, error) {
	switch v := t.(type) {
	case krdf.IRI:
		return IRI(v.String()), nil
	case krdf.Blank:
		return Blank(v.String()), nil
	case krdf.Literal:
		if lang := v.Lang(); lang != "" {
			return LangLiteral(v.String(), lang), nil
		}
		dt := v.DataType.String()
		if dt == RDFLangString {
			dt = ""
		}
		return TypedLiteral(v.String(), dt), nil
	}
	return Term{}, fmt.Errorf("%w: unsupported term %T", ErrSyntax, t)
}

// NTriples renders the graph as sorted N-Triples.
func (g *Graph) NTriples() string {
	var b strings.Builder
	for _, t := range g.Triples() {
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Turtle renders the graph as Turtle, grouping statements by subject. Prefixes
// map short names to namespace IRIs; only prefixes actually used are declared.
func (g *Graph) Turtle(prefixes map[string]string) string {
	w := newTurtleWriter(prefixes)
	triples := g.Triples()
	for _, t := range triples {
		w.note(t.S)
		w.note(t.P)
		w.note(t.O)
	}
	w.writePrefixes()

	for i := 0; i < len(triples); {
		subj := triples[i].S
		j := i
		for j < len(triples) && triples[j].S == subj {
			j++
		}
		w.writeSubject(subj, triples[i:j])
		i = j
	}
	return w.sb.String()
}

type turtleWriter struct {
	prefixes map[string]string // prefix -> namespace
	used     map[string]bool
	sb       strings.Builder
}

func newTurtleWriter(prefixes map[string]string) *turtleWriter {
	p := make(map[string]string, len(prefixes))
	for k, v := range prefixes {
		if v != "" {
			p[k] = v
		}
	}
	return &turtleWriter{prefixes: p, used: make(map[string]bool)}
}

func (w *turtleWriter) note(t Term) {
	iri := t.Value
	if t.IsLiteral() {
		iri = t.Datatype
	} else if !t.IsIRI() {
		return
	}
	if pfx, _, ok := w.compact(iri); ok {
		w.used[pfx] = true
	}
}

func (w *turtleWriter) writePrefixes() {
	keys := make([]string, 0, len(w.used))
	for k := range w.used {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&w.sb, "@prefix %s: <%s> .\n", k, w.prefixes[k])
	}
	if len(keys) > 0 {
		w.sb.WriteString("\n")
	}
}

func (w *turtleWriter) writeSubject(subj Term, ts []Triple) {
	w.sb.WriteString(w.term(subj))
	for i, t := range ts {
		if i > 0 && ts[i-1].P == t.P {
			w.sb.WriteString(" ,\n        ")
		} else {
			if i > 0 {
				w.sb.WriteString(" ;")
			}
			w.sb.WriteString("\n    ")
			if t.P.Value == RDFType {
				w.sb.WriteString("a")
			} else {
				w.sb.WriteString(w.term(t.P))
			}
			w.sb.WriteString(" ")
		}
		w.sb.WriteString(w.term(t.O))
	}
	w.sb.WriteString(" .\n\n")
}

func (w *turtleWriter) term(t Term) string {
	switch t.Kind {
	case KindIRI:
		if pfx, local, ok := w.compact(t.Value); ok {
			return pfx + ":" + local
		}
		return t.String()
	case KindLiteral:
		if t.Datatype != "" && t.Lang == "" {
			dt := "<" + t.Datatype + ">"
			if pfx, local, ok := w.compact(t.Datatype); ok {
				dt = pfx + ":" + local
			}
			return `"` + escapeLiteral(t.Value) + `"^^` + dt
		}
	}
	return t.String()
}

// compact finds the longest matching namespace for iri whose remainder is a
// legal prefixed-name local part.
func (w *turtleWriter) compact(iri string) (string, string, bool) {
	best, bestNS := "", ""
	for pfx, ns := range w.prefixes {
		if ns == "" || !strings.HasPrefix(iri, ns) || len(ns) <= len(bestNS) {
			continue
		}
		if !validLocal(iri[len(ns):]) {
			continue
		}
		best, bestNS = pfx, ns
	}
	if bestNS == "" {
		return "", "", false
	}
	return best, iri[len(bestNS):], true
}

func validLocal(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		case (r == '-' || r == '.') && i > 0 && i < len(s)-1:
		default:
			return false
		}
	}
	return true
}
