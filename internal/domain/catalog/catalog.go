package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed procedures.yaml
var defaultProcedures []byte

// ErrUnknownProcedure is returned when a procedure id is not in the catalog.
var ErrUnknownProcedure = errors.New("unknown procedure")

// Procedure is a billable procedure a treatment plan can reference.
type Procedure struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Group string `yaml:"group" json:"group,omitempty"`
}

type file struct {
	Procedures []Procedure `yaml:"procedures"`
}

// Catalog is an immutable, ordered procedure list indexed by id.
type Catalog struct {
	list []Procedure
	byID map[string]Procedure
}

// Parse builds a catalog from YAML. Ids must be unique and names present.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{byID: make(map[string]Procedure, len(f.Procedures))}
	for _, p := range f.Procedures {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog: procedure id is required")
		}
		if p.Name == "" {
			return nil, fmt.Errorf("catalog: procedure %s: name is required", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate procedure %s", p.ID)
		}
		c.byID[p.ID] = p
		c.list = append(c.list, p)
	}
	return c, nil
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultProcedures)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Resolve returns the procedure with the given id.
func (c *Catalog) Resolve(id string) (Procedure, error) {
	p, ok := c.byID[id]
	if !ok {
		return Procedure{}, fmt.Errorf("%w: %q", ErrUnknownProcedure, id)
	}
	return p, nil
}

// List returns the procedures in file order.
func (c *Catalog) List() []Procedure {
	out := make([]Procedure, len(c.list))
	copy(out, c.list)
	return out
}

// Groups returns the procedures of each group, keeping file order.
func (c *Catalog) Groups() map[string][]Procedure {
	out := make(map[string][]Procedure)
	for _, p := range c.list {
		out[p.Group] = append(out[p.Group], p)
	}
	return out
}
