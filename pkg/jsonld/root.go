package jsonld

import "github.com/matzehuels/cratetree/pkg/errors"

// RO-Crate metadata descriptor conventions.
const (
	// DescriptorID is the identifier of the RO-Crate 1.1 metadata descriptor.
	DescriptorID = "ro-crate-metadata.json"

	// LegacyDescriptorID is the RO-Crate 1.0 descriptor identifier.
	LegacyDescriptorID = "ro-crate-metadata.jsonld"

	// AboutField names the descriptor field pointing at the root dataset.
	AboutField = "about"
)

// RootResolver picks the identifier of the record that becomes the root of
// the visualization. It returns false when the graph has no suitable root.
type RootResolver func(g *Graph) (string, bool)

// ROCrateRoot resolves the dataset described by the RO-Crate metadata
// descriptor.
var ROCrateRoot = MetadataDescriptor(AboutField, DescriptorID, LegacyDescriptorID)

// MetadataDescriptor returns a resolver that finds the first of the given
// descriptor records and follows its field to the described entity. The
// field may hold a reference object or a plain identifier string.
func MetadataDescriptor(field string, descriptorIDs ...string) RootResolver {
	return func(g *Graph) (string, bool) {
		for _, id := range descriptorIDs {
			desc, ok := g.Lookup(id)
			if !ok {
				continue
			}
			v, _ := desc.Get(field)
			switch t := v.(type) {
			case *Record:
				return t.ID()
			case string:
				return t, t != ""
			}
			return "", false
		}
		return "", false
	}
}

// FixedRoot returns a resolver that always names id.
func FixedRoot(id string) RootResolver {
	return func(*Graph) (string, bool) { return id, id != "" }
}

// FirstRecord resolves the first identified record in document order.
func FirstRecord(g *Graph) (string, bool) {
	for _, r := range g.Records() {
		if id, ok := r.ID(); ok {
			return id, true
		}
	}
	return "", false
}

// ResolveRoot applies the resolver and looks the root up in the graph.
// Both a resolver miss and a dangling root identifier are reported as
// [errors.ErrCodeRootNotFound].
func ResolveRoot(g *Graph, resolve RootResolver) (*Record, error) {
	if resolve == nil {
		resolve = ROCrateRoot
	}
	id, ok := resolve(g)
	if !ok {
		return nil, errors.New(errors.ErrCodeRootNotFound, "no root identifier found in graph of %d records", g.Len())
	}
	root, ok := g.Lookup(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeRootNotFound, "root entity %q not found in graph", id)
	}
	return root, nil
}
