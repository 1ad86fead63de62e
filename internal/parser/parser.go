package parser

import (
	"sort"
	"sync"
	"time"
)

// Result is the outcome of parsing one syslog message. Parsing never fails
// outright: at worst Fields is empty and Raw carries the untouched payload.
type Result struct {
	Raw string

	// Fields maps key to raw string value, duplicates resolved last-wins.
	// Keys preserves first-occurrence order.
	Fields map[string]string
	Keys   []string

	// Coerced views of the fixed numeric key set. A key absent here but
	// present in Fields failed coercion.
	Ints   map[string]int64
	Floats map[string]float64

	// Timestamp reconstructed from the date and time fields, nil when
	// either is missing or malformed.
	Timestamp *time.Time
}

// Field returns the raw string value for key.
func (r *Result) Field(key string) (string, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// StringPtr returns a pointer to the raw value for key, nil when absent.
func (r *Result) StringPtr(key string) *string {
	if v, ok := r.Fields[key]; ok {
		return &v
	}
	return nil
}

// IntPtr returns a pointer to the coerced integer for key, nil when the key
// is absent or failed coercion.
func (r *Result) IntPtr(key string) *int64 {
	if v, ok := r.Ints[key]; ok {
		return &v
	}
	return nil
}

// FloatPtr returns a pointer to the coerced float for key, nil when the key
// is absent or failed coercion.
func (r *Result) FloatPtr(key string) *float64 {
	if v, ok := r.Floats[key]; ok {
		return &v
	}
	return nil
}

// Parser extracts structured fields from one vendor's message format.
type Parser interface {
	Vendor() string
	Parse(raw string) *Result
}

// Registry dispatches to vendor parsers by identifier. Adding a vendor is a
// Register call; the listener never changes.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// DefaultRegistry returns a registry with all built-in vendor parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewFortinetParser())
	return r
}

func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.Vendor()] = p
}

func (r *Registry) Lookup(vendor string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[vendor]
	return p, ok
}

// Vendors lists the registered vendor identifiers, sorted.
func (r *Registry) Vendors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vendors := make([]string, 0, len(r.parsers))
	for v := range r.parsers {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)
	return vendors
}
