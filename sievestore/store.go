// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievestore

import "context"

// Todo is the entity managed by a Store.  Its identity is its ID.
type Todo struct {
	ID        uint64 `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Store is an ordered collection of Todos that is safe for concurrent use.
// The boolean results report whether the operation found (or, for Create,
// inserted) its Todo.  Errors are reserved for backend faults.
type Store interface {
	// List returns at most limit Todos in insertion order, skipping the first offset.
	// Negative values count as zero.  The returned slice is never nil.
	List(ctx context.Context, offset, limit int) ([]Todo, error)

	// Create appends a Todo, returning false if a Todo with the same ID already exists.
	Create(ctx context.Context, t Todo) (bool, error)

	// Update replaces the Todo with the given id, returning false if there is none.
	// The stored Todo keeps the id, whatever t.ID holds.
	Update(ctx context.Context, id uint64, t Todo) (bool, error)

	// Delete removes the Todo with the given id, returning false if there is none.
	Delete(ctx context.Context, id uint64) (bool, error)
}

// window normalizes an offset and limit.
func window(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}

	if limit < 0 {
		limit = 0
	}

	return offset, limit
}
