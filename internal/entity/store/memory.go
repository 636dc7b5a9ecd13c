// Package store holds the entity repositories used by the pipeline.
package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"medplant/internal/pipeline"
	"medplant/pkg/platform/sentinel"
)

// MemoryRepository keeps entities in a map. Unique rules are enforced under
// the write lock, so concurrent inserts of the same key see exactly one win.
type MemoryRepository[E pipeline.Entity] struct {
	mu      sync.RWMutex
	items   map[int64]E
	nextID  int64
	uniques []pipeline.UniqueRule[E]
}

func NewMemoryRepository[E pipeline.Entity](uniques []pipeline.UniqueRule[E]) *MemoryRepository[E] {
	return &MemoryRepository[E]{
		items:   make(map[int64]E),
		uniques: uniques,
	}
}

func (r *MemoryRepository[E]) List(_ context.Context, tenantID *int64) ([]E, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]E, 0, len(r.items))
	for _, e := range r.items {
		if tenantID != nil && !sameTenant(e.Meta().PlantID, tenantID) {
			continue
		}
		out = append(out, clone(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Meta().ID < out[j].Meta().ID })
	return out, nil
}

func (r *MemoryRepository[E]) GetByID(_ context.Context, id int64, tenantID *int64) (E, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok || (tenantID != nil && !sameTenant(e.Meta().PlantID, tenantID)) {
		var zero E
		return zero, sentinel.ErrNotFound
	}
	return clone(e), nil
}

// Add assigns the next ID to e and stores a copy.
func (r *MemoryRepository[E]) Add(_ context.Context, e E) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(e, 0); err != nil {
		return err
	}
	r.nextID++
	e.Meta().ID = r.nextID
	r.items[r.nextID] = clone(e)
	return nil
}

func (r *MemoryRepository[E]) Update(_ context.Context, e E, modifiedBy string, modifiedOn time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := e.Meta().ID
	if _, ok := r.items[id]; !ok {
		return sentinel.ErrNotFound
	}
	if err := r.checkUnique(e, id); err != nil {
		return err
	}
	stored := clone(e)
	stored.Meta().Touch(modifiedBy, modifiedOn)
	r.items[id] = stored
	return nil
}

func (r *MemoryRepository[E]) Delete(_ context.Context, id int64, tenantID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]
	if !ok || (tenantID != nil && !sameTenant(e.Meta().PlantID, tenantID)) {
		return sentinel.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository[E]) Exists(_ context.Context, column string, value any, excludeID int64, tenantID *int64) (bool, error) {
	rule, ok := r.ruleForColumn(column)
	if !ok {
		return false, fmt.Errorf("column %q is not indexed", column)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, e := range r.items {
		if id == excludeID {
			continue
		}
		if tenantID != nil && !sameTenant(e.Meta().PlantID, tenantID) {
			continue
		}
		if equalValues(rule.Value(e), value) {
			return true, nil
		}
	}
	return false, nil
}

// Len reports the number of stored entities.
func (r *MemoryRepository[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// checkUnique must be called with the write lock held.
func (r *MemoryRepository[E]) checkUnique(e E, excludeID int64) error {
	for _, rule := range r.uniques {
		value := rule.Value(e)
		if isBlank(value) {
			continue
		}
		for id, other := range r.items {
			if id == excludeID {
				continue
			}
			if rule.PerTenant && !sameTenant(other.Meta().PlantID, e.Meta().PlantID) {
				continue
			}
			if equalValues(rule.Value(other), value) {
				return &sentinel.UniqueViolation{Constraint: rule.Constraint}
			}
		}
	}
	return nil
}

func (r *MemoryRepository[E]) ruleForColumn(column string) (pipeline.UniqueRule[E], bool) {
	for _, rule := range r.uniques {
		if rule.Column == column {
			return rule, true
		}
	}
	return pipeline.UniqueRule[E]{}, false
}

func sameTenant(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// equalValues compares strings case-insensitively, matching the lower()
// unique indexes in the SQL schema.
func equalValues(a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.EqualFold(strings.TrimSpace(as), strings.TrimSpace(bs))
	}
	return a == b
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// clone copies the struct behind a pointer entity so stored state cannot be
// changed through values handed to callers.
func clone[E pipeline.Entity](e E) E {
	v := reflect.ValueOf(e)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return e
	}
	c := reflect.New(v.Elem().Type())
	c.Elem().Set(v.Elem())
	out, ok := c.Interface().(E)
	if !ok {
		return e
	}
	return out
}
