package model

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
)

func TestSyntheticTiler_Tiles(t *testing.T) {
	tiler := &SyntheticTiler{Count: 50, Seed: 1}
	tiles, err := tiler.Tiles(context.Background(), "s3://datasets/aoi-7")
	if err != nil {
		t.Fatalf("Tiles failed: %v", err)
	}
	if len(tiles) != 50 {
		t.Fatalf("Expected 50 tiles, got %d", len(tiles))
	}

	seen := make(map[string]bool)
	aoi := DefaultAOI
	for _, tile := range tiles {
		if seen[tile.ID] {
			t.Errorf("Duplicate tile id %s", tile.ID)
		}
		seen[tile.ID] = true

		if tile.Lat < aoi.MinLat || tile.Lat > aoi.MinLat+aoi.SpanLat {
			t.Errorf("Tile %s lat %f outside AOI", tile.ID, tile.Lat)
		}
		if tile.Lon < aoi.MinLon || tile.Lon > aoi.MinLon+aoi.SpanLon {
			t.Errorf("Tile %s lon %f outside AOI", tile.ID, tile.Lon)
		}
	}

	if tiles[0].ID != "tile-00000" {
		t.Errorf("Expected padded ids, got %s", tiles[0].ID)
	}
}

func TestSyntheticScorer_ScoreBounds(t *testing.T) {
	scorer := NewSyntheticScorer("production", 42)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		det, err := scorer.Score(ctx, Tile{ID: "tile-00000"})
		if err != nil {
			t.Fatalf("Score failed: %v", err)
		}
		if det.Score < 0 || det.Score > 1 {
			t.Fatalf("Score %f out of [0,1]", det.Score)
		}
	}
}

func TestScoreThumbnailer_Render(t *testing.T) {
	thumb := &ScoreThumbnailer{}

	data, contentType, err := thumb.Render(Tile{ID: "tile-00000"}, Detection{Score: 0.75})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("Expected image/png, got %s", contentType)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Output is not valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 128 || bounds.Dy() != 128 {
		t.Errorf("Expected 128x128, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRegistry_Resolve(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore("artifacts")
	registry := NewRegistry(store).WithSeed(7)

	// No metadata stored: label passes through, default applied.
	scorer, err := registry.Resolve(ctx, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if scorer.Version() != "production" {
		t.Errorf("Expected production, got %s", scorer.Version())
	}

	// Stored metadata pins the canonical version string.
	meta := `{"version":"tortoise-det-v2.1","framework":"synthetic"}`
	if _, err := store.Upload(ctx, blob.ModelMetadataKey("production"), strings.NewReader(meta), "application/json", nil); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	scorer, err = registry.Resolve(ctx, "production")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if scorer.Version() != "tortoise-det-v2.1" {
		t.Errorf("Expected pinned version, got %s", scorer.Version())
	}
}
