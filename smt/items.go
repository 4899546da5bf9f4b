package smt

import (
	"encoding/binary"
	"fmt"
)

// Helpers for the fixed width scalar items the tree persists. Every Store
// failure leaves here already wrapped as a StorageError.

func loadBytes(store Store, key []byte) ([]byte, bool, error) {
	v, ok, err := store.Get(key)
	if err != nil {
		return nil, false, storageErr("get", key, err)
	}
	return v, ok, nil
}

func saveBytes(store Store, key, value []byte) error {
	return storageErr("put", key, store.Put(key, value))
}

func removeKey(store Store, key []byte) error {
	return storageErr("delete", key, store.Delete(key))
}

func loadUint64(store Store, key []byte) (uint64, bool, error) {
	v, ok, err := loadBytes(store, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if len(v) != 8 {
		return 0, false, fmt.Errorf("%w: %q holds %d bytes, want 8", ErrCorruptState, key, len(v))
	}
	return binary.BigEndian.Uint64(v), true, nil
}

func saveUint64(store Store, key []byte, value uint64) error {
	return saveBytes(store, key, binary.BigEndian.AppendUint64(nil, value))
}

func loadUint32(store Store, key []byte) (uint32, bool, error) {
	v, ok, err := loadBytes(store, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if len(v) != 4 {
		return 0, false, fmt.Errorf("%w: %q holds %d bytes, want 4", ErrCorruptState, key, len(v))
	}
	return binary.BigEndian.Uint32(v), true, nil
}

func saveUint32(store Store, key []byte, value uint32) error {
	return saveBytes(store, key, binary.BigEndian.AppendUint32(nil, value))
}

func loadUint8(store Store, key []byte) (uint8, bool, error) {
	v, ok, err := loadBytes(store, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if len(v) != 1 {
		return 0, false, fmt.Errorf("%w: %q holds %d bytes, want 1", ErrCorruptState, key, len(v))
	}
	return v[0], true, nil
}

// mustLoadBytes is loadBytes for items that Init guarantees are present.
func mustLoadBytes(store Store, key []byte) ([]byte, error) {
	v, ok, err := loadBytes(store, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q is missing", ErrCorruptState, key)
	}
	return v, nil
}
