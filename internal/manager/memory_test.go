package manager

import (
	"testing"
	"time"

	"assistd/pkg/types"
)

func TestSaveRecord_FillsIDAndTimestamp(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeGen{}, nil)
	ctx := testCtx(t)
	got, err := m.SaveRecord(ctx, types.ConversationRecord{Message: "m", Response: "r"})
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if got.ID != "rec-1" || !got.Timestamp.Equal(fixedNow) {
		t.Fatalf("defaults not applied: %+v", got)
	}
	back, err := m.GetRecord(ctx, "rec-1")
	if err != nil || back.Message != "m" {
		t.Fatalf("GetRecord: %+v %v", back, err)
	}

	ts := time.Date(2023, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	kept, err := m.SaveRecord(ctx, types.ConversationRecord{ID: "mine", Message: "q", Response: "a", Timestamp: ts})
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if kept.ID != "mine" || !kept.Timestamp.Equal(ts) || kept.Timestamp.Location() != time.UTC {
		t.Fatalf("explicit values should be kept in UTC: %+v", kept)
	}
}

func TestMemoryDelegation(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeGen{models: []string{"phi3:3.8b"}}, nil)
	ctx := testCtx(t)
	for _, msg := range []string{"alpha", "beta"} {
		if _, err := m.SaveRecord(ctx, types.ConversationRecord{Message: msg, Response: "r"}); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}
	list, err := m.ListRecords(ctx, 10, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListRecords: %v %v", list, err)
	}
	found, err := m.SearchRecords(ctx, "alp", 10)
	if err != nil || len(found) != 1 || found[0].Message != "alpha" {
		t.Fatalf("SearchRecords: %v %v", found, err)
	}
	if _, err := m.GetRecord(ctx, "nope"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	models, err := m.ListModels(ctx)
	if err != nil || len(models) != 1 {
		t.Fatalf("ListModels: %v %v", models, err)
	}
}

func TestSaveRecord_RejectsUnroutableIDs(t *testing.T) {
	m, st, _ := newTestManager(t, &fakeGen{}, nil)
	ctx := testCtx(t)
	for _, id := range []string{"search", "a/b", "/"} {
		_, err := m.SaveRecord(ctx, types.ConversationRecord{ID: id, Message: "m", Response: "r"})
		if !IsInvalidRequest(err) {
			t.Fatalf("id %q: expected invalid request, got %v", id, err)
		}
	}
	if n, err := st.Count(ctx); err != nil || n != 0 {
		t.Fatalf("rejected records were stored: n=%d err=%v", n, err)
	}
	// near misses are ordinary ids
	if _, err := m.SaveRecord(ctx, types.ConversationRecord{ID: "search-2", Message: "m", Response: "r"}); err != nil {
		t.Fatalf("search-2: %v", err)
	}
}
