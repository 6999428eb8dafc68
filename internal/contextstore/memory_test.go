package contextstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/contextstore"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

func TestGetCreatesLazily(t *testing.T) {
	s := contextstore.NewMemory()
	ctx := context.Background()

	uctx, err := s.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if uctx.UserID != "alice" {
		t.Errorf("Get().UserID = %q, want alice", uctx.UserID)
	}
	if uctx.LastLocation.Source != models.LocationNone {
		t.Errorf("fresh context LastLocation.Source = %q, want none", uctx.LastLocation.Source)
	}
	if len(uctx.History) != 0 {
		t.Errorf("fresh context has %d history entries, want 0", len(uctx.History))
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	s := contextstore.NewMemory()
	ctx := context.Background()

	uctx, _ := s.Get(ctx, "bob")
	uctx.LastLocation = models.LastLocation{Source: models.LocationAddress, Value: "London"}
	uctx.LastCoordinates = &models.LatLon{Lat: 51.5074, Lon: -0.1278}
	if err := s.Update(ctx, uctx); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := s.Get(ctx, "bob")
	if got.LastLocation.Value != "London" {
		t.Errorf("LastLocation.Value = %q, want London", got.LastLocation.Value)
	}
	if got.LastCoordinates == nil || got.LastCoordinates.Lat != 51.5074 {
		t.Errorf("LastCoordinates = %v, want lat 51.5074", got.LastCoordinates)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := contextstore.NewMemory()
	ctx := context.Background()

	first, _ := s.Get(ctx, "carol")
	first.LastLocation.Value = "mutated without Update"

	second, _ := s.Get(ctx, "carol")
	if second.LastLocation.Value != "" {
		t.Error("mutation of a returned context leaked into the store")
	}
}

func TestAppendMessageTrimsHistory(t *testing.T) {
	s := contextstore.NewMemory()
	ctx := context.Background()

	for i := 0; i < models.HistoryWindow+5; i++ {
		if err := s.AppendMessage(ctx, "dave", models.RoleUser, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}

	uctx, _ := s.Get(ctx, "dave")
	if len(uctx.History) != models.HistoryWindow {
		t.Fatalf("history length = %d, want %d", len(uctx.History), models.HistoryWindow)
	}
	// Oldest entries were dropped.
	if uctx.History[0].Text != "message 5" {
		t.Errorf("oldest retained entry = %q, want message 5", uctx.History[0].Text)
	}
}
