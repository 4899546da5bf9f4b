package smt

// TreeOptions configures a Tree. The zero value is not useful; use
// NewTreeOptions or pass Options to NewTree.
type TreeOptions struct {
	Layout Layout
	Policy RootPolicy

	// LeafIndexScan derives the next leaf index from the greatest stored leaf
	// key rather than from the persisted counter. It exists for stores
	// written without a counter; both strategies produce the same indices.
	LeafIndexScan bool
}

type Option func(*TreeOptions)

func NewTreeOptions(opts ...Option) TreeOptions {
	o := TreeOptions{
		Layout: NewLayout(""),
		Policy: LatestOnly{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLayout(layout Layout) Option {
	return func(o *TreeOptions) {
		o.Layout = layout
	}
}

func WithRootPolicy(policy RootPolicy) Option {
	return func(o *TreeOptions) {
		o.Policy = policy
	}
}

func WithLeafIndexScan() Option {
	return func(o *TreeOptions) {
		o.LeafIndexScan = true
	}
}
