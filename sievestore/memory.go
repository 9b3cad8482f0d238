// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievestore

import (
	"context"
	"sync"
)

// Memory is an in-memory Store.  Every operation holds a single lock for its
// whole duration, so check-then-insert and find-then-replace are atomic.
//
// The zero value is an empty, ready to use Memory.
type Memory struct {
	lock  sync.Mutex
	todos []Todo
}

var _ Store = (*Memory)(nil)

// NewMemory creates a Memory holding copies of the given Todos, in order.
// Duplicate IDs after the first are dropped.
func NewMemory(initial ...Todo) *Memory {
	m := new(Memory)
	for _, t := range initial {
		if m.indexOf(t.ID) < 0 {
			m.todos = append(m.todos, t)
		}
	}

	return m
}

// indexOf must be called under the lock.
func (m *Memory) indexOf(id uint64) int {
	for i, t := range m.todos {
		if t.ID == id {
			return i
		}
	}

	return -1
}

func (m *Memory) List(_ context.Context, offset, limit int) ([]Todo, error) {
	offset, limit = window(offset, limit)

	m.lock.Lock()
	defer m.lock.Unlock()

	if offset >= len(m.todos) {
		return []Todo{}, nil
	}

	end := len(m.todos)
	if end-offset > limit {
		end = offset + limit
	}

	return append([]Todo{}, m.todos[offset:end]...), nil
}

func (m *Memory) Create(_ context.Context, t Todo) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.indexOf(t.ID) >= 0 {
		return false, nil
	}

	m.todos = append(m.todos, t)
	return true, nil
}

func (m *Memory) Update(_ context.Context, id uint64, t Todo) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}

	t.ID = id
	m.todos[i] = t
	return true, nil
}

func (m *Memory) Delete(_ context.Context, id uint64) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}

	m.todos = append(m.todos[:i], m.todos[i+1:]...)
	return true, nil
}
