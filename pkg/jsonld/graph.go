package jsonld

// Graph is the flat collection of records from a JSON-LD "@graph".
type Graph struct {
	records []*Record
	index   map[string]*Record
	context Value
}

// NewGraph creates a graph from records in document order.
func NewGraph(records ...*Record) *Graph {
	g := &Graph{index: make(map[string]*Record, len(records))}
	for _, r := range records {
		g.Add(r)
	}
	return g
}

// Add appends a record. If its identifier is already taken the earlier
// record keeps winning lookups.
func (g *Graph) Add(r *Record) {
	if r == nil {
		return
	}
	g.records = append(g.records, r)
	if id, ok := r.ID(); ok {
		if _, exists := g.index[id]; !exists {
			g.index[id] = r
		}
	}
}

// Lookup returns the first record whose identifier equals id.
func (g *Graph) Lookup(id string) (*Record, bool) {
	if g == nil {
		return nil, false
	}
	r, ok := g.index[id]
	return r, ok
}

// Records returns the records in document order.
func (g *Graph) Records() []*Record {
	if g == nil {
		return nil
	}
	return append([]*Record(nil), g.records...)
}

// Len returns the number of records.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.records)
}

// Context returns the document's top-level "@context", if any.
func (g *Graph) Context() Value {
	if g == nil {
		return nil
	}
	return g.context
}
