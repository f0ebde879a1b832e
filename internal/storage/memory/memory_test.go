package memory

import (
	"context"
	"testing"

	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/models"
)

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	created, err := db.UpsertUser(ctx, 1, "Ann", nil, models.StringPtr("ann"))
	if err != nil || !created {
		t.Fatalf("UpsertUser = %v, %v; want true, nil", created, err)
	}
	created, _ = db.UpsertUser(ctx, 1, "Bob", nil, nil)
	if created {
		t.Error("second UpsertUser should not create")
	}

	u, err := db.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.FirstName != "Ann" {
		t.Errorf("expected Ann, got %s", u.FirstName)
	}

	// Mutating the copy must not leak into the store
	*u.Username = "changed"
	u2, _ := db.GetUser(ctx, 1)
	if *u2.Username != "ann" {
		t.Error("GetUser returned shared state")
	}

	if _, err := db.GetUser(ctx, 999); !apperr.IsNotFound(err) {
		t.Errorf("GetUser(999) error = %v, want ErrNotFound", err)
	}
	if err := db.SetUserWeight(ctx, 999, 70); !apperr.IsNotFound(err) {
		t.Errorf("SetUserWeight(999) error = %v, want ErrNotFound", err)
	}
}

func TestWeightHistory(t *testing.T) {
	db := New()
	ctx := context.Background()
	db.UpsertUser(ctx, 1, "Ann", nil, nil)
	db.UpsertUser(ctx, 2, "Bob", nil, nil)

	if err := db.RecordWeight(ctx, 1, "2024-01-01", 70); err != nil {
		t.Fatalf("RecordWeight: %v", err)
	}
	if err := db.RecordWeight(ctx, 1, "2024-01-08", 69); err != nil {
		t.Fatalf("RecordWeight: %v", err)
	}
	db.RecordWeight(ctx, 2, "2024-01-08", 90)

	events, err := db.ListWeightHistory(ctx, 1)
	if err != nil {
		t.Fatalf("ListWeightHistory: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Date != "2024-01-08" || events[0].Weight != 69 {
		t.Errorf("newest entry = %+v", events[0])
	}

	if err := db.RecordWeight(ctx, 3, "2024-01-08", 50); !apperr.IsNotFound(err) {
		t.Errorf("RecordWeight for missing user error = %v", err)
	}
	none, _ := db.ListWeightHistory(ctx, 3)
	if len(none) != 0 {
		t.Error("RecordWeight for missing user wrote history")
	}

	if err := db.DeleteUser(ctx, 1); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	events, _ = db.ListWeightHistory(ctx, 1)
	if len(events) != 0 {
		t.Errorf("expected 0 events after delete, got %d", len(events))
	}
	other, _ := db.ListWeightHistory(ctx, 2)
	if len(other) != 1 {
		t.Errorf("other user history = %d entries, want 1", len(other))
	}
}

func TestAppendSnapshot(t *testing.T) {
	db := New()
	ctx := context.Background()
	db.UpsertUser(ctx, 1, "Ann", nil, nil)
	db.UpsertUser(ctx, 2, "Bob", nil, nil)
	db.SetUserWeight(ctx, 1, 71)

	if written, err := db.AppendSnapshot(ctx, 1, "2024-03-04"); err != nil || !written {
		t.Fatalf("AppendSnapshot(1) = %v, %v; want true, nil", written, err)
	}
	if written, _ := db.AppendSnapshot(ctx, 2, "2024-03-04"); written {
		t.Error("snapshot written for user without weight")
	}
	if written, _ := db.AppendSnapshot(ctx, 3, "2024-03-04"); written {
		t.Error("snapshot written for missing user")
	}

	h, _ := db.ListWeightHistory(ctx, 1)
	if len(h) != 1 || h[0].Weight != 71 || h[0].Date != "2024-03-04" {
		t.Errorf("history = %+v", h)
	}
	if h, _ := db.ListWeightHistory(ctx, 3); len(h) != 0 {
		t.Errorf("missing user got history: %+v", h)
	}
}

func TestListAllUsersWithWeight(t *testing.T) {
	db := New()
	ctx := context.Background()
	db.UpsertUser(ctx, 2, "B", nil, nil)
	db.UpsertUser(ctx, 1, "A", nil, nil)
	db.SetUserWeight(ctx, 1, 70)

	got, _ := db.ListAllUsersWithWeight(ctx)
	if len(got) != 1 || got[0].UserID != 1 {
		t.Errorf("ListAllUsersWithWeight() = %+v", got)
	}
	users, _ := db.ListUsers(ctx)
	if len(users) != 2 || users[0].ID != 1 {
		t.Errorf("ListUsers() not sorted: %+v", users)
	}
}
