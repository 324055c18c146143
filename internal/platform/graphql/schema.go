package graphql

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphql
var schemaSDL string

var (
	schemaOnce sync.Once
	schema     *ast.Schema
	schemaErr  error
)

// Schema returns the parsed backend schema.
func Schema() (*ast.Schema, error) {
	schemaOnce.Do(func() {
		s, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})
		if err != nil {
			schemaErr = fmt.Errorf("load graphql schema: %w", err)
			return
		}
		schema = s
	})
	return schema, schemaErr
}

// Validator checks documents against the schema and remembers the ones that
// passed, so each document is parsed once per process.
type Validator struct {
	schema *ast.Schema
	ok     sync.Map // document -> struct{}
}

func NewValidator() (*Validator, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}
	return &Validator{schema: s}, nil
}

// Validate returns an error listing every problem gqlparser found in doc.
func (v *Validator) Validate(doc string) error {
	if _, ok := v.ok.Load(doc); ok {
		return nil
	}
	if _, errs := gqlparser.LoadQuery(v.schema, doc); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, errs.Error())
	}
	v.ok.Store(doc, struct{}{})
	return nil
}
