package ontology

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"storyagent/internal/logging"
	"storyagent/internal/types"
)

//go:embed background.yaml
var embeddedBackground []byte

// ErrInvalidBackground is returned when the background document is malformed.
var ErrInvalidBackground = errors.New("invalid background ontology")

// Document is the on-disk form of the background ontology.
type Document struct {
	Version    string           `yaml:"version"`
	Classes    []ClassDecl      `yaml:"classes"`
	Disjoint   [][]string       `yaml:"disjoint"`
	Properties []PropertyDecl   `yaml:"properties"`
	Thresholds []ThresholdAxiom `yaml:"thresholds"`
	Facts      [][]string       `yaml:"facts"`
}

// ClassDecl declares a class and its direct superclasses.
type ClassDecl struct {
	ID         string   `yaml:"id"`
	SubClassOf []string `yaml:"subClassOf"`
}

// PropertyDecl declares a property. Datatype properties carry literal objects.
type PropertyDecl struct {
	ID            string   `yaml:"id"`
	Domain        string   `yaml:"domain"`
	Range         string   `yaml:"range"`
	SubPropertyOf []string `yaml:"subPropertyOf"`
	Datatype      bool     `yaml:"datatype"`
}

// ThresholdAxiom states that any subject whose integer Property is at least Min
// is an instance of Class.
type ThresholdAxiom struct {
	Class    types.Identifier `yaml:"class"`
	Property types.Identifier `yaml:"property"`
	Min      int64            `yaml:"min"`
}

// Background is the compiled background ontology: plain triples plus the
// threshold axioms the reasoner turns into closure rules.
type Background struct {
	Version    string
	Triples    []types.Triple
	Thresholds []ThresholdAxiom
}

// LoadEmbedded compiles the background ontology shipped with the binary.
func LoadEmbedded() (*Background, error) {
	return Parse(bytes.NewReader(embeddedBackground))
}

// LoadFile compiles a background ontology from path. An empty path selects
// the embedded document.
func LoadFile(path string) (*Background, error) {
	if path == "" {
		return LoadEmbedded()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open background ontology: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and compiles a background document.
func Parse(r io.Reader) (*Background, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackground, err)
	}
	bg, err := doc.Compile()
	if err != nil {
		return nil, err
	}
	logging.Boot("background ontology %s loaded: %d triples, %d threshold axioms",
		bg.Version, len(bg.Triples), len(bg.Thresholds))
	return bg, nil
}

// Compile validates every identifier and flattens the document into triples.
func (d *Document) Compile() (*Background, error) {
	c := compiler{seen: make(map[types.Triple]struct{})}

	for _, cls := range d.Classes {
		id := c.id(cls.ID, "class")
		c.add(id, RDFType, OWLClass)
		for _, super := range cls.SubClassOf {
			c.add(id, RDFSSubClassOf, c.id(super, "superclass of "+cls.ID))
		}
	}

	for i, pair := range d.Disjoint {
		if len(pair) != 2 {
			c.fail("disjoint entry %d must name exactly two classes", i)
			continue
		}
		c.add(c.id(pair[0], "disjoint class"), OWLDisjointWith, c.id(pair[1], "disjoint class"))
	}

	for _, p := range d.Properties {
		id := c.id(p.ID, "property")
		kind := OWLObjectProperty
		if p.Datatype {
			kind = OWLDataProperty
		}
		c.add(id, RDFType, kind)
		if p.Domain != "" {
			c.add(id, RDFSDomain, c.id(p.Domain, "domain of "+p.ID))
		}
		if p.Range != "" {
			c.add(id, RDFSRange, c.id(p.Range, "range of "+p.ID))
		}
		for _, super := range p.SubPropertyOf {
			c.add(id, RDFSSubPropertyOf, c.id(super, "superproperty of "+p.ID))
		}
	}

	for i, f := range d.Facts {
		if len(f) != 3 {
			c.fail("fact %d must have subject, predicate and object", i)
			continue
		}
		s := c.id(f[0], "fact subject")
		p := c.id(f[1], "fact predicate")
		o := c.id(f[2], "fact object")
		if IsDataProperty(p) {
			c.fail("fact %d uses data property %s with an identifier object", i, p)
			continue
		}
		c.add(s, p, o)
	}

	for _, ax := range d.Thresholds {
		if !ax.Class.Valid() || !ax.Property.Valid() {
			c.fail("threshold axiom %s/%s has an invalid identifier", ax.Class, ax.Property)
			continue
		}
		if kind, ok := DataProperties[ax.Property]; !ok || kind != types.KindInteger {
			c.fail("threshold axiom property %s is not an integer data property", ax.Property)
		}
	}

	if len(c.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackground, errors.Join(c.errs...))
	}
	if len(c.triples) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidBackground)
	}

	thresholds := append([]ThresholdAxiom(nil), d.Thresholds...)
	sort.Slice(thresholds, func(i, j int) bool {
		return thresholds[i].Class < thresholds[j].Class
	})

	return &Background{
		Version:    d.Version,
		Triples:    c.triples,
		Thresholds: thresholds,
	}, nil
}

type compiler struct {
	triples []types.Triple
	seen    map[types.Triple]struct{}
	errs    []error
}

func (c *compiler) id(raw, what string) types.Identifier {
	id := types.Identifier(raw)
	if !id.Valid() {
		c.fail("%s %q is not a valid identifier", what, raw)
	}
	return id
}

func (c *compiler) add(s, p, o types.Identifier) {
	t := types.NewTriple(s, p, o)
	if _, dup := c.seen[t]; dup {
		return
	}
	c.seen[t] = struct{}{}
	c.triples = append(c.triples, t)
}

func (c *compiler) fail(format string, args ...interface{}) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}
