package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/classroom-bot/internal/persistence"
)

// refreshConcurrency bounds parallel mirror edits during Refresh.
const refreshConcurrency = 4

// RecordSchema describes one record kind to the RecordStore.
type RecordSchema[T any] struct {
	// Kind names the record kind in logs ("schedule", "homework", "dropdown").
	Kind string
	// Document is the persistence document holding the record table.
	Document string
	// IDPrefix is prepended to generated ids ("class", "homework", "dropdown").
	IDPrefix string
	// Render produces the mirror message for a record.
	Render func(Record[T]) Message
	// SetField applies an admin edit of a single named field.
	SetField func(fields *T, field, value string) error
	// Reset clears per-user state when a record is copied. Optional.
	Reset func(fields *T)
}

// recordTable is the persisted form of a record kind: a flat map from id to record.
type recordTable[T any] map[string]Record[T]

// RecordStore keeps records of one kind and the chat messages mirroring them
// in step. Operations on the same record id are mutually exclusive.
type RecordStore[T any] struct {
	schema RecordSchema[T]
	doc    *documentCell[recordTable[T]]
	mirror MessageMirror
	locks  *keyedMutex
	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

// NewRecordStore constructs a RecordStore persisting into store.
func NewRecordStore[T any](schema RecordSchema[T], store persistence.DocumentStore, mirror MessageMirror, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RecordStore[T] {
	if now == nil {
		now = time.Now
	}
	return &RecordStore[T]{
		schema: schema,
		doc:    newDocumentCell(store, schema.Document, func() recordTable[T] { return recordTable[T]{} }),
		mirror: mirror,
		locks:  newKeyedMutex(),
		newID:  idGenerator,
		now:    now,
		logger: defaultLogger(logger),
	}
}

func (s *RecordStore[T]) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RecordStore", operation, append([]any{"record_kind", s.schema.Kind}, attrs...)...)
}

// Create renders fields, posts the mirror message to channelID and persists
// the record. Nothing is persisted when the send fails; when persisting fails
// the posted message is removed again.
func (s *RecordStore[T]) Create(ctx context.Context, fields T, channelID, createdBy string) (Record[T], error) {
	if channelID == "" {
		return Record[T]{}, fieldError("channel", "a target channel is required")
	}

	rec := Record[T]{
		ID:        s.schema.IDPrefix + "-" + s.newID(),
		ChannelID: channelID,
		CreatedBy: createdBy,
		CreatedAt: s.now().UTC(),
		Fields:    fields,
	}
	logger := s.loggerWith(ctx, "Create", "record_id", rec.ID, "channel_id", channelID)

	messageID, err := s.mirror.Send(ctx, channelID, s.schema.Render(rec))
	if err != nil {
		err = &MirrorError{Op: "send", RecordID: rec.ID, Err: err}
		logOutcome(ctx, logger, "failed to post record message", err)
		return Record[T]{}, err
	}
	rec.MessageID = messageID

	_, err = s.doc.update(ctx, func(table *recordTable[T]) error {
		if _, exists := (*table)[rec.ID]; exists {
			return fmt.Errorf("application: duplicate record id %s", rec.ID)
		}
		rec.Seq = nextSeq(*table)
		(*table)[rec.ID] = rec
		return nil
	})
	if err != nil {
		if delErr := s.mirror.Delete(ctx, channelID, messageID); delErr != nil {
			logger.WarnContext(ctx, "failed to remove orphaned record message", "error", delErr, "error_kind", "mirror")
		}
		logOutcome(ctx, logger, "failed to persist record", err)
		return Record[T]{}, err
	}

	logger.InfoContext(ctx, "record created", "message_id", messageID)
	return rec, nil
}

// Get returns a record by id.
func (s *RecordStore[T]) Get(ctx context.Context, id string) (Record[T], error) {
	table, err := s.doc.read(ctx)
	if err != nil {
		return Record[T]{}, err
	}
	rec, ok := table[id]
	if !ok {
		return Record[T]{}, ErrNotFound
	}
	return rec, nil
}

// Edit sets one field through the schema and re-renders the mirror in place.
// A *MirrorError means the change was stored but the message still shows the
// previous values.
func (s *RecordStore[T]) Edit(ctx context.Context, id, field, value string) (Record[T], error) {
	return s.Mutate(ctx, id, func(rec *Record[T]) error {
		return s.schema.SetField(&rec.Fields, field, value)
	})
}

// Mutate applies fn to a record, persists it, then re-renders its mirror.
// Errors from fn abort before anything is written.
func (s *RecordStore[T]) Mutate(ctx context.Context, id string, fn func(*Record[T]) error) (Record[T], error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	logger := s.loggerWith(ctx, "Mutate", "record_id", id)

	var updated Record[T]
	_, err := s.doc.update(ctx, func(table *recordTable[T]) error {
		rec, ok := (*table)[id]
		if !ok {
			return ErrNotFound
		}
		if err := fn(&rec); err != nil {
			return err
		}
		rec.ID = id
		(*table)[id] = rec
		updated = rec
		return nil
	})
	if err != nil {
		logOutcome(ctx, logger, "failed to update record", err)
		return Record[T]{}, err
	}

	if err := s.syncMirror(ctx, updated); err != nil {
		logOutcome(ctx, logger, "record updated but mirror is stale", err)
		return updated, err
	}
	logger.InfoContext(ctx, "record updated")
	return updated, nil
}

// Delete removes the record, then makes a best-effort attempt to remove its
// mirror message. A mirror failure is logged and never returned.
func (s *RecordStore[T]) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	logger := s.loggerWith(ctx, "Delete", "record_id", id)

	var removed Record[T]
	_, err := s.doc.update(ctx, func(table *recordTable[T]) error {
		rec, ok := (*table)[id]
		if !ok {
			return ErrNotFound
		}
		removed = rec
		delete(*table, id)
		return nil
	})
	if err != nil {
		logOutcome(ctx, logger, "failed to delete record", err)
		return err
	}

	if removed.MessageID != "" {
		if err := s.mirror.Delete(ctx, removed.ChannelID, removed.MessageID); err != nil {
			logOutcome(ctx, logger, "failed to delete record message", &MirrorError{Op: "delete", RecordID: id, Err: err})
		}
	}
	logger.InfoContext(ctx, "record deleted")
	return nil
}

// Copy duplicates a record under a new id with a brand new mirror message in
// the source's channel. Per-user state is cleared through the schema's Reset.
func (s *RecordStore[T]) Copy(ctx context.Context, id, createdBy string) (Record[T], error) {
	unlock := s.locks.Lock(id)
	source, err := s.Get(ctx, id)
	unlock()
	if err != nil {
		return Record[T]{}, err
	}

	fields := source.Fields
	if s.schema.Reset != nil {
		s.schema.Reset(&fields)
	}
	return s.Create(ctx, fields, source.ChannelID, createdBy)
}

// List returns all records in insertion order.
func (s *RecordStore[T]) List(ctx context.Context) ([]Record[T], error) {
	table, err := s.doc.read(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Record[T], 0, len(table))
	for _, rec := range table {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seq == out[j].Seq {
			return out[i].ID < out[j].ID
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

// Refresh re-renders every mirrored record. Per-record failures are counted
// and logged; they never stop the remaining edits.
func (s *RecordStore[T]) Refresh(ctx context.Context) (RefreshReport, error) {
	records, err := s.List(ctx)
	if err != nil {
		return RefreshReport{}, err
	}

	logger := s.loggerWith(ctx, "Refresh")

	var refreshed, failed atomic.Int64
	total := 0

	var g errgroup.Group
	g.SetLimit(refreshConcurrency)
	for _, rec := range records {
		if rec.MessageID == "" {
			continue
		}
		total++
		rec := rec
		g.Go(func() error {
			unlock := s.locks.Lock(rec.ID)
			defer unlock()

			current, err := s.Get(ctx, rec.ID)
			if errors.Is(err, ErrNotFound) {
				// deleted while the refresh was running
				return nil
			}
			if err == nil {
				err = s.syncMirror(ctx, current)
			}
			if err != nil {
				failed.Add(1)
				logOutcome(ctx, logger.With("record_id", rec.ID), "failed to refresh record message", err)
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := RefreshReport{Total: total, Refreshed: int(refreshed.Load()), Failed: int(failed.Load())}
	logger.InfoContext(ctx, "records refreshed", "total", report.Total, "refreshed", report.Refreshed, "failed", report.Failed)
	return report, nil
}

func (s *RecordStore[T]) syncMirror(ctx context.Context, rec Record[T]) error {
	if rec.MessageID == "" {
		return nil
	}
	if err := s.mirror.Edit(ctx, rec.ChannelID, rec.MessageID, s.schema.Render(rec)); err != nil {
		return &MirrorError{Op: "edit", RecordID: rec.ID, Err: err}
	}
	return nil
}

func nextSeq[T any](table recordTable[T]) int64 {
	var max int64
	for _, rec := range table {
		if rec.Seq > max {
			max = rec.Seq
		}
	}
	return max + 1
}
