package catalog

import (
	"fmt"
)

// Catalog is the ordered, immutable registry of operations
type Catalog struct {
	seeds      []string
	operations []*Operation
	byName     map[string]*Operation
}

// New registers operations in declaration order. Every input must be a seed
// table or a table materialized by an earlier operation.
func New(seeds []string, operations ...*Operation) (*Catalog, error) {
	c := &Catalog{
		seeds:  append([]string(nil), seeds...),
		byName: make(map[string]*Operation, len(operations)),
	}

	available := make(map[string]bool, len(seeds)+len(operations))
	for _, seed := range seeds {
		available[seed] = true
	}

	for _, op := range operations {
		if err := op.validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byName[op.Name]; exists {
			return nil, fmt.Errorf("operation %s registered twice", op.Name)
		}
		for _, input := range op.Inputs {
			if !available[input] {
				return nil, fmt.Errorf("operation %s: input table %s is neither a seed nor materialized earlier", op.Name, input)
			}
		}
		if op.Materialize != "" {
			available[op.Materialize] = true
		}

		c.operations = append(c.operations, op)
		c.byName[op.Name] = op
	}

	return c, nil
}

// Get looks up an operation by name
func (c *Catalog) Get(name string) (*Operation, bool) {
	op, ok := c.byName[name]
	return op, ok
}

// Operations returns the operations in declaration order
func (c *Catalog) Operations() []*Operation {
	return append([]*Operation(nil), c.operations...)
}

// Names returns operation names in declaration order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.operations))
	for i, op := range c.operations {
		names[i] = op.Name
	}
	return names
}

// Seeds returns the seed table names the catalog was built against
func (c *Catalog) Seeds() []string {
	return append([]string(nil), c.seeds...)
}

func (c *Catalog) Len() int {
	return len(c.operations)
}
