package audit

import (
	"context"
	"strconv"
)

// Attempted records entry into a mutating operation.
func (r *Recorder) Attempted(ctx context.Context, entityType, op, recordID, description string) {
	r.Record(ctx, Entry{
		EntityType:  entityType,
		Action:      Action(entityType, op, SuffixAttempt),
		RecordID:    recordID,
		Description: description,
	})
}

// Rejected records a failure branch. suffix is one of the Suffix constants.
func (r *Recorder) Rejected(ctx context.Context, entityType, op, suffix, recordID, description string) {
	r.Record(ctx, Entry{
		EntityType:  entityType,
		Action:      Action(entityType, op, suffix),
		RecordID:    recordID,
		Description: description,
	})
}

func (r *Recorder) Created(ctx context.Context, entityType, recordID string, after any, description string) {
	r.Record(ctx, Entry{
		EntityType:  entityType,
		Action:      Action(entityType, OpCreate, ""),
		RecordID:    recordID,
		After:       Snapshot(after),
		Description: description,
	})
}

func (r *Recorder) Updated(ctx context.Context, entityType, recordID string, before, after any, description string) {
	b, a := Snapshot(before), Snapshot(after)
	r.Record(ctx, Entry{
		EntityType:  entityType,
		Action:      Action(entityType, OpUpdate, ""),
		RecordID:    recordID,
		Before:      b,
		After:       a,
		Changes:     Changes(b, a),
		Description: description,
	})
}

// Deleted stores the removed state as both snapshots.
func (r *Recorder) Deleted(ctx context.Context, entityType, recordID string, before any, description string) {
	b := Snapshot(before)
	r.Record(ctx, Entry{
		EntityType:  entityType,
		Action:      Action(entityType, OpDelete, ""),
		RecordID:    recordID,
		Before:      b,
		After:       b,
		Description: description,
	})
}

// Viewed records a read of one record. It is best-effort and asynchronous.
func (r *Recorder) Viewed(ctx context.Context, entityType, op, recordID, description string) {
	r.RecordAsync(ctx, Entry{
		EntityType:  entityType,
		Action:      Action(entityType, op, ""),
		RecordID:    recordID,
		Description: description,
	})
}

// Listed records a list read. It is best-effort and asynchronous.
func (r *Recorder) Listed(ctx context.Context, entityType string, count int) {
	r.RecordAsync(ctx, Entry{
		EntityType:  entityType,
		Action:      Action(entityType, OpList, ""),
		Description: "listed " + strconv.Itoa(count) + " records",
	})
}
