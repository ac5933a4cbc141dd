package store

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is wrapped by *IndexError.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrEmptyText is returned when a task text or category name is blank.
	ErrEmptyText = errors.New("text is required")
)

// IndexError reports a position outside the addressed collection.
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0,%d)", e.Op, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

func checkIndex(op string, index, length int) error {
	if index < 0 || index >= length {
		return &IndexError{Op: op, Index: index, Len: length}
	}
	return nil
}
