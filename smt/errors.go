package smt

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyInitialized = errors.New("smt: the tree is already initialized")
	ErrNotInitialized     = errors.New("smt: the tree has not been initialized")
	ErrCapacityExceeded   = errors.New("smt: total leaf count would exceed the maximum for the tree depth")
	ErrInvalidDepth       = errors.New("smt: tree depth must be between 1 and 64")
	ErrInvalidCapacity    = errors.New("smt: root history capacity must be greater than zero")
	ErrLeafNotFound       = errors.New("smt: leaf index is beyond the current tree size")
	ErrCorruptState       = errors.New("smt: persisted tree state is inconsistent")
)

var (
	ErrHasher  = errors.New("smt: hasher failure")
	ErrStorage = errors.New("smt: storage failure")
)

// HasherError reports a failure of the injected hash combiner.
type HasherError struct {
	Err error
}

func (e *HasherError) Error() string { return fmt.Sprintf("smt: hasher: %v", e.Err) }
func (e *HasherError) Unwrap() error { return e.Err }
func (e *HasherError) Is(target error) bool {
	return target == ErrHasher
}

// StorageError reports a failed read or write against the Store.
type StorageError struct {
	Op  string
	Key []byte
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("smt: storage %s %q: %v", e.Op, e.Key, e.Err)
}
func (e *StorageError) Unwrap() error { return e.Err }
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func hasherErr(err error) error {
	if err == nil {
		return nil
	}
	return &HasherError{Err: err}
}

func storageErr(op string, key []byte, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Key: key, Err: err}
}
