package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/beanbook/beanbook/internal/model"
)

func snapshot(id string, count int) *model.BrewSnapshot {
	return &model.BrewSnapshot{ID: id, Title: "V60", CreatorID: "u1", SaveCount: count}
}

func TestValidateBrewUpdate(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name    string
		update  model.BrewUpdate
		wantErr string
	}{
		{"both snapshots", model.BrewUpdate{Before: snapshot("b1", 1), After: snapshot("b1", 2), OccurredAt: now}, ""},
		{"only after", model.BrewUpdate{After: snapshot("b1", 2), OccurredAt: now}, ""},
		{"only before", model.BrewUpdate{Before: snapshot("b1", 2), OccurredAt: now}, ""},
		{"no snapshots", model.BrewUpdate{OccurredAt: now}, "no snapshot"},
		{"before without id", model.BrewUpdate{Before: snapshot("", 1), After: snapshot("b1", 2), OccurredAt: now}, "before snapshot"},
		{"after without id", model.BrewUpdate{After: snapshot("", 1), OccurredAt: now}, "after snapshot"},
		{"mismatched ids", model.BrewUpdate{Before: snapshot("b1", 1), After: snapshot("b2", 2), OccurredAt: now}, "different brews"},
		{"no timestamp", model.BrewUpdate{After: snapshot("b1", 2)}, "occurred_at"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateBrewUpdate(tt.update)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeBrewUpdate(t *testing.T) {
	t.Parallel()

	in := model.BrewUpdate{
		Before:     snapshot("b1", 4),
		After:      snapshot("b1", 5),
		OccurredAt: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	out, err := DecodeBrewUpdate(string(data))
	if err != nil {
		t.Fatalf("DecodeBrewUpdate failed: %v", err)
	}
	if out.BrewID() != "b1" || out.Before.SaveCount != 4 || out.After.SaveCount != 5 {
		t.Errorf("unexpected decode: %+v", out)
	}

	if _, err := DecodeBrewUpdate("not json"); err == nil {
		t.Error("expected error for malformed payload")
	}
	if _, err := DecodeBrewUpdate(`{"occurred_at":"2025-05-01T09:00:00Z"}`); err == nil {
		t.Error("expected error for payload without snapshots")
	}
}

func TestNewConsumerID_Unique(t *testing.T) {
	t.Parallel()

	a, b := NewConsumerID(), NewConsumerID()
	if a == b {
		t.Errorf("consumer IDs should differ, both %s", a)
	}
}

func TestIsConsumerGroupExistsError(t *testing.T) {
	t.Parallel()

	if isConsumerGroupExistsError(nil) {
		t.Error("nil is not BUSYGROUP")
	}
	if !isConsumerGroupExistsError(errString("BUSYGROUP Consumer Group name already exists")) {
		t.Error("BUSYGROUP should be recognised")
	}
	if isConsumerGroupExistsError(errString("ERR something else")) {
		t.Error("other errors are not BUSYGROUP")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
