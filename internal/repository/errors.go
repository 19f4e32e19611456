package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateID is returned when an entity with the same ID already exists.
	ErrDuplicateID = errors.New("entity already exists")

	// ErrStatusMismatch is returned by a conditional status transition when the
	// stored status differs from the expected one.
	ErrStatusMismatch = errors.New("entity status mismatch")
)
