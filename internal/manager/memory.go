package manager

import (
	"context"
	"strconv"
	"strings"

	"assistd/pkg/types"
)

// reservedRecordIDs collide with fixed routes under /memory.
var reservedRecordIDs = map[string]bool{"search": true}

// SaveRecord upserts rec. An empty id gets a fresh one and a zero timestamp
// gets the current time. Ids that could not be fetched back by path are
// rejected. The stored record is returned.
func (m *Manager) SaveRecord(ctx context.Context, rec types.ConversationRecord) (types.ConversationRecord, error) {
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = m.newID()
	}
	if reservedRecordIDs[rec.ID] || strings.Contains(rec.ID, "/") {
		return types.ConversationRecord{}, ErrInvalidRequest("record id " + strconv.Quote(rec.ID) + " is reserved or contains '/'")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = m.now()
	}
	rec.Timestamp = rec.Timestamp.UTC()
	if err := m.store.Save(ctx, rec); err != nil {
		return types.ConversationRecord{}, err
	}
	return rec, nil
}

func (m *Manager) GetRecord(ctx context.Context, id string) (types.ConversationRecord, error) {
	return m.store.Get(ctx, id)
}

// ListRecords returns records newest first.
func (m *Manager) ListRecords(ctx context.Context, limit, offset int) ([]types.ConversationRecord, error) {
	return m.store.List(ctx, limit, offset)
}

// SearchRecords returns records whose message or response contains query.
func (m *Manager) SearchRecords(ctx context.Context, query string, limit int) ([]types.ConversationRecord, error) {
	return m.store.Search(ctx, query, limit)
}

// ListModels returns the models installed on the inference server.
func (m *Manager) ListModels(ctx context.Context) ([]string, error) {
	return m.gen.ListModels(ctx)
}
