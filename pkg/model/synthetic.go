package model

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// AOI is the bounding box synthetic tiles are placed in.
type AOI struct {
	MinLat  float64
	MinLon  float64
	SpanLat float64
	SpanLon float64
}

// DefaultAOI is a half-degree box over the southern Galápagos, matching
// the survey area the synthetic dataset stands in for.
var DefaultAOI = AOI{MinLat: -0.5, MinLon: -90.5, SpanLat: 0.5, SpanLon: 0.5}

// SyntheticTiler enumerates a fixed number of tiles spread over an AOI.
// It does not dereference the dataset URI; a real tiler must crop the
// source imagery instead.
type SyntheticTiler struct {
	Count int
	AOI   AOI
	Seed  int64 // 0 means non-deterministic
}

// Tiles returns Count tiles with ids tile-00000..tile-{Count-1}.
func (t *SyntheticTiler) Tiles(ctx context.Context, datasetURI string) ([]Tile, error) {
	count := t.Count
	if count <= 0 {
		count = 500
	}
	aoi := t.AOI
	if aoi.SpanLat == 0 && aoi.SpanLon == 0 {
		aoi = DefaultAOI
	}

	rng := newRand(t.Seed)
	tiles := make([]Tile, count)
	for i := range tiles {
		tiles[i] = Tile{
			ID:    fmt.Sprintf("tile-%05d", i),
			Index: i,
			Lat:   aoi.MinLat + rng.Float64()*aoi.SpanLat,
			Lon:   aoi.MinLon + rng.Float64()*aoi.SpanLon,
		}
	}
	return tiles, nil
}

// SyntheticScorer is the model stand-in: uniform random scores. It is
// deliberately not a pure function of tile pixels; a real model should
// be, for reproducibility.
type SyntheticScorer struct {
	ModelVersion string
	Seed         int64 // 0 means non-deterministic

	once sync.Once
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewSyntheticScorer creates the stand-in scorer for a version label.
func NewSyntheticScorer(version string, seed int64) *SyntheticScorer {
	if version == "" {
		version = "production"
	}
	return &SyntheticScorer{ModelVersion: version, Seed: seed}
}

// Score returns a random score in [0,1], keeping the tile's position.
func (s *SyntheticScorer) Score(ctx context.Context, tile Tile) (Detection, error) {
	if err := ctx.Err(); err != nil {
		return Detection{}, err
	}

	s.once.Do(func() { s.rng = newRand(s.Seed) })
	s.mu.Lock()
	score := s.rng.Float64()
	s.mu.Unlock()

	return Detection{Score: score, Lat: tile.Lat, Lon: tile.Lon}, nil
}

// Version reports the stand-in's version label.
func (s *SyntheticScorer) Version() string {
	return s.ModelVersion
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewSource(rand.Int63()))
	}
	return rand.New(rand.NewSource(seed))
}

var (
	_ Tiler  = (*SyntheticTiler)(nil)
	_ Scorer = (*SyntheticScorer)(nil)
)
