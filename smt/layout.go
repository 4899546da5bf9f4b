package smt

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// TreePrefix is the path component under which LayoutForTree places a tree.
const TreePrefix = "tree/"

// Layout names the keys a tree keeps in its Store. Each field is a complete
// key or key prefix; hosts that share a Store between several trees give each
// tree a distinct Layout.
type Layout struct {
	Depth      []byte
	Zeros      []byte
	Frontier   []byte
	Leaves     []byte
	Count      []byte
	Root       []byte
	RootSet    []byte
	Slots      []byte
	SlotCursor []byte
}

// NewLayout returns the default layout with every key under prefix.
func NewLayout(prefix string) Layout {
	k := func(name string) []byte { return []byte(prefix + name) }
	return Layout{
		Depth:      k("depth"),
		Zeros:      k("zero/"),
		Frontier:   k("frontier/"),
		Leaves:     k("leaf/"),
		Count:      k("count"),
		Root:       k("root"),
		RootSet:    k("roots/"),
		Slots:      k("slot/"),
		SlotCursor: k("slotpos"),
	}
}

// LayoutForTree returns the layout for a tree identified by id, rooted at
// tree/{uuid}/.
func LayoutForTree(id uuid.UUID) Layout {
	return NewLayout(TreePrefix + id.String() + "/")
}

// ParseTreeID recovers the tree id from any key produced by LayoutForTree. ok
// is false if the key does not carry a tree id.
func ParseTreeID(key []byte) (uuid.UUID, bool) {
	s := string(key)
	if len(s) < len(TreePrefix)+36 || s[:len(TreePrefix)] != TreePrefix {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(s[len(TreePrefix) : len(TreePrefix)+36])
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

func (l Layout) ZeroKey(level uint8) []byte     { return append(clonePrefix(l.Zeros), level) }
func (l Layout) FrontierKey(level uint8) []byte { return append(clonePrefix(l.Frontier), level) }

// LeafKey encodes index big endian so that key order matches index order.
func (l Layout) LeafKey(index uint64) []byte {
	return binary.BigEndian.AppendUint64(clonePrefix(l.Leaves), index)
}

// LeafIndex is the inverse of LeafKey.
func (l Layout) LeafIndex(key []byte) (uint64, bool) {
	if len(key) != len(l.Leaves)+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(l.Leaves):]), true
}

func (l Layout) RootSetKey(root []byte) []byte {
	return append(clonePrefix(l.RootSet), root...)
}

func (l Layout) SlotKey(slot uint32) []byte {
	return binary.BigEndian.AppendUint32(clonePrefix(l.Slots), slot)
}

func (l Layout) SlotIndex(key []byte) (uint32, bool) {
	if len(key) != len(l.Slots)+4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(key[len(l.Slots):]), true
}

// clonePrefix copies p with spare capacity so appends never alias the
// layout's own backing arrays.
func clonePrefix(p []byte) []byte {
	b := make([]byte, len(p), len(p)+8)
	copy(b, p)
	return b
}
