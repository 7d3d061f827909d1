package formatter

import "fmt"

// Registry holds the formatters known to a run, in the
// order they execute.
type Registry struct {
	formatters []Formatter
}

// NewRegistry returns a registry running fs in order.
func NewRegistry(fs ...Formatter) *Registry {
	return &Registry{formatters: fs}
}

// All returns every registered formatter in order.
func (r *Registry) All() []Formatter {
	return r.formatters
}

// Lookup returns the formatter with the given name.
func (r *Registry) Lookup(name string) (Formatter, error) {
	for _, f := range r.formatters {
		if f.Name() == name {
			return f, nil
		}
	}

	return nil, fmt.Errorf("%w %s", ErrUnknownFormatter, name)
}
