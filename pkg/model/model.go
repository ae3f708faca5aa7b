// Package model defines the detection model boundary. The pipeline
// depends only on the interfaces here, so the synthetic stand-in and a
// future real model are interchangeable without touching writer logic.
package model

import "context"

// Tile is the unit of inference: a fixed-size image crop with the
// geolocation of its center.
type Tile struct {
	ID    string
	Index int
	Lat   float64
	Lon   float64
}

// Detection is one tile's model output. Lat/Lon may refine the tile's
// nominal position (e.g. the detection centroid within the tile).
type Detection struct {
	Score float64 // confidence in [0,1]
	Lat   float64
	Lon   float64
}

// Scorer scores a single tile.
type Scorer interface {
	// Score runs inference on one tile.
	Score(ctx context.Context, tile Tile) (Detection, error)

	// Version reports the model version producing the scores.
	Version() string
}

// Tiler produces the tiles of a dataset.
type Tiler interface {
	// Tiles enumerates the tiles of the dataset at the given URI.
	Tiles(ctx context.Context, datasetURI string) ([]Tile, error)
}

// Thumbnailer renders a reviewable thumbnail for a scored tile.
type Thumbnailer interface {
	// Render returns encoded image bytes and their content type.
	Render(tile Tile, det Detection) ([]byte, string, error)
}
