package schema

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Signature describes one recognised column set.
type Signature struct {
	Tag      Tag
	Label    string
	Priority int      // lower is checked first
	FileName string   // lower-case upload name that claims this schema
	Required []string // all must be present
	Optional []string // charts degrade to warnings without them
}

var (
	registry   = make(map[Tag]Signature)
	registryMu sync.RWMutex
)

// Register adds a signature. Panics on a duplicate tag or on Unknown.
func Register(sig Signature) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if sig.Tag == Unknown {
		panic("schema: cannot register the UNKNOWN tag")
	}
	if _, exists := registry[sig.Tag]; exists {
		panic(fmt.Sprintf("schema already registered: %s", sig.Tag))
	}
	sig.Required = slices.Clone(sig.Required)
	sig.Optional = slices.Clone(sig.Optional)
	registry[sig.Tag] = sig
}

// Lookup returns the signature for a tag.
func Lookup(tag Tag) (Signature, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	sig, ok := registry[tag]
	return sig, ok
}

// Signatures returns all signatures in classification order.
func Signatures() []Signature {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Signature, 0, len(registry))
	for _, sig := range registry {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// Optional returns the optional columns of a tag.
func Optional(tag Tag) []string {
	sig, ok := Lookup(tag)
	if !ok {
		return nil
	}
	return slices.Clone(sig.Optional)
}
