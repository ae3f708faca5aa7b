package pipeline

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
)

func TestConfirmationSink_SaveLoad(t *testing.T) {
	ctx := context.Background()
	sink := &ConfirmationSink{Store: blob.NewMemStore("artifacts")}

	selections := []Selection{
		{TileID: "tile-00003", Confirmed: true},
		{TileID: "tile-00007", Confirmed: false},
	}
	if err := sink.Save(ctx, "run-1", selections); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := sink.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := &Confirmations{RunID: "run-1", Selections: selections}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Confirmations mismatch (-want +got):\n%s", diff)
	}
}

func TestConfirmationSink_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	sink := &ConfirmationSink{Store: blob.NewMemStore("artifacts")}

	first := []Selection{{TileID: "tile-00001", Confirmed: true}}
	second := []Selection{{TileID: "tile-00002", Confirmed: false}}

	if err := sink.Save(ctx, "run-1", first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := sink.Save(ctx, "run-1", second); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	got, err := sink.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Selections) != 1 || got.Selections[0].TileID != "tile-00002" {
		t.Errorf("Expected second write to fully replace the first, got %+v", got.Selections)
	}
}

func TestConfirmationSink_EmptyRunID(t *testing.T) {
	sink := &ConfirmationSink{Store: blob.NewMemStore("artifacts")}

	err := sink.Save(context.Background(), "", nil)
	if !IsCode(err, CodeInvalidArgument) {
		t.Errorf("Expected invalid_argument, got %v", err)
	}
}

func TestConfirmationSink_LoadMissing(t *testing.T) {
	sink := &ConfirmationSink{Store: blob.NewMemStore("artifacts")}

	_, err := sink.Load(context.Background(), "ghost")
	if !IsCode(err, CodeNotFound) {
		t.Errorf("Expected not_found, got %v", err)
	}
}
