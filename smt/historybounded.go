package smt

// BoundedRootHistory accepts the roots produced by the last Capacity inserts.
//
// The history is a ring of Capacity slots. A cursor names the slot written
// most recently and each slot holds the root written there. The presence set
// maps every root in the ring to the number of slots holding it, so a root
// repeated by consecutive inserts stays valid until its last slot is
// overwritten, and membership checks are a single point read. Every insert
// consumes a slot, so the bound is on inserts rather than on distinct roots.
type BoundedRootHistory struct {
	Capacity uint32
}

func (h BoundedRootHistory) Validate() error {
	if h.Capacity == 0 {
		return ErrInvalidCapacity
	}
	return nil
}

func (h BoundedRootHistory) Record(store Store, layout Layout, root []byte) error {
	if err := h.Validate(); err != nil {
		return err
	}

	cur, _, err := loadUint32(store, layout.SlotCursor)
	if err != nil {
		return err
	}
	next := uint32((uint64(cur) + 1) % uint64(h.Capacity))

	if err = h.evict(store, layout, next); err != nil {
		return err
	}

	if err = h.addRef(store, layout, root); err != nil {
		return err
	}
	if err = saveBytes(store, layout.SlotKey(next), root); err != nil {
		return err
	}
	return saveUint32(store, layout.SlotCursor, next)
}

func (h BoundedRootHistory) IsValidRoot(store Store, layout Layout, candidate []byte) (bool, error) {
	_, ok, err := loadBytes(store, layout.RootSetKey(candidate))
	return ok, err
}

// evict clears slot and drops its hold on the root it contained. An empty
// slot is not an error.
func (h BoundedRootHistory) evict(store Store, layout Layout, slot uint32) error {
	key := layout.SlotKey(slot)
	old, ok, err := loadBytes(store, key)
	if err != nil || !ok {
		return err
	}
	if err = h.dropRef(store, layout, old); err != nil {
		return err
	}
	return removeKey(store, key)
}

func (h BoundedRootHistory) addRef(store Store, layout Layout, root []byte) error {
	key := layout.RootSetKey(root)
	refs, _, err := loadUint32(store, key)
	if err != nil {
		return err
	}
	return saveUint32(store, key, refs+1)
}

// dropRef removes the root from the presence set once no slot holds it.
func (h BoundedRootHistory) dropRef(store Store, layout Layout, root []byte) error {
	key := layout.RootSetKey(root)
	refs, _, err := loadUint32(store, key)
	if err != nil {
		return err
	}
	if refs <= 1 {
		return removeKey(store, key)
	}
	return saveUint32(store, key, refs-1)
}

// Prune removes slots left over from a previously larger capacity, releasing
// their presence entries, and brings the cursor back into range. The roots
// removed are not necessarily the oldest. Prune is idempotent.
func (h BoundedRootHistory) Prune(store Store, layout Layout) error {
	if err := h.Validate(); err != nil {
		return err
	}

	cur, _, err := loadUint32(store, layout.SlotCursor)
	if err != nil {
		return err
	}
	if err = saveUint32(store, layout.SlotCursor, cur%h.Capacity); err != nil {
		return err
	}

	// Collect first, the store may not tolerate writes during a scan.
	var stale []uint32
	err = store.Range(layout.Slots, layout.SlotKey(h.Capacity), func(key, _ []byte) error {
		if slot, ok := layout.SlotIndex(key); ok {
			stale = append(stale, slot)
		}
		return nil
	})
	if err != nil {
		return storageErr("range", layout.Slots, err)
	}

	for _, slot := range stale {
		if err = h.evict(store, layout, slot); err != nil {
			return err
		}
	}
	return nil
}
