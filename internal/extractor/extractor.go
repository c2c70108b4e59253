// Package extractor pulls the grid bot fields out of noisy recognized text.
package extractor

import "strings"

// Extractor applies a schema. It holds no mutable state and is safe for
// concurrent use.
type Extractor struct {
	schema *Schema
}

func New(schema *Schema) *Extractor {
	return &Extractor{schema: schema}
}

// NewDefault uses DefaultSchema.
func NewDefault() *Extractor {
	return New(DefaultSchema())
}

// Schema returns the rules this extractor applies.
func (e *Extractor) Schema() *Schema { return e.schema }

// Extract never fails: every rule is attempted independently against the
// collapsed text and unmatched fields are simply absent.
func (e *Extractor) Extract(text string) Record {
	t := CollapseWhitespace(text)
	values := make(map[Field]any)
	for _, rule := range e.schema.rules {
		bound, ok := rule.Apply(t)
		if !ok {
			continue
		}
		for f, v := range bound {
			values[f] = v
		}
	}
	return Record{raw: t, values: values}
}

var defaultExtractor = NewDefault()

// ExtractFields runs the default schema.
func ExtractFields(text string) Record {
	return defaultExtractor.Extract(text)
}

// CollapseWhitespace reduces every whitespace run, form feeds included, to a
// single space and trims the ends.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
