package parser

import (
	"fmt"
	"sort"
	"strings"
)

// Registry routes each Kind to its parser.
type Registry struct {
	parsers map[Kind]Parser
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry returns a registry holding the built-in parsers.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[Kind]Parser)}
	r.Register(NewCSVParser())
	r.Register(NewExcelParser())
	r.Register(NewImageParser())
	r.Register(NewPDFParser())
	r.Register(NewDocxParser())
	r.Register(NewNotebookParser())
	r.Register(NewZIPParser())
	return r
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds or replaces the parser for p.Kind().
func (r *Registry) Register(p Parser) {
	r.parsers[p.Kind()] = p
}

// Lookup returns the parser for a kind.
func (r *Registry) Lookup(kind Kind) (Parser, error) {
	p, ok := r.parsers[kind]
	if !ok {
		return nil, fmt.Errorf("no parser registered for kind: %s", kind)
	}
	return p, nil
}

// GetParserByName returns the parser whose name matches, ignoring case.
func (r *Registry) GetParserByName(name string) (Parser, error) {
	for _, p := range r.parsers {
		if strings.EqualFold(p.Name(), name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown file kind %q (known: %s)", name, strings.Join(r.Names(), ", "))
}

// Names returns the registered parser names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for _, p := range r.parsers {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}
