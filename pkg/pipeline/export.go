package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/twpayne/go-geom"
	geojson "github.com/twpayne/go-geom/encoding/geojson"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
)

// Format is a supported export interchange format.
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatCSV     Format = "csv"
	FormatGPX     Format = "gpx"
	FormatKML     Format = "kml"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatGeoJSON, FormatCSV, FormatGPX, FormatKML:
		return Format(s), nil
	default:
		return "", Errorf(CodeInvalidArgument, "unsupported format %q", s)
	}
}

func (f Format) contentType() string {
	switch f {
	case FormatGeoJSON:
		return "application/geo+json"
	case FormatCSV:
		return "text/csv"
	case FormatGPX:
		return "application/gpx+xml"
	case FormatKML:
		return "application/vnd.google-earth.kml+xml"
	default:
		return "application/octet-stream"
	}
}

// NoThreshold exports the full table without score filtering.
const NoThreshold = -1

// Exporter renders a run's records into an interchange format, persists
// the artifact at the run-scoped export key, and returns a presigned
// URL. Each call re-renders and re-persists; output is byte-identical
// for the same table and format (records render in table order).
type Exporter struct {
	Reader     *Reader
	Store      blob.Store
	PresignTTL time.Duration
}

// Export renders and persists the run's export artifact. threshold
// filters records to score >= threshold; pass NoThreshold for the full
// table. An unsupported format fails before anything is read or written.
func (e *Exporter) Export(ctx context.Context, runID, format string, threshold float64) (string, error) {
	fmtParsed, err := ParseFormat(format)
	if err != nil {
		return "", err
	}

	records, err := e.Reader.All(ctx, runID, threshold)
	if err != nil {
		return "", err
	}

	data, err := render(fmtParsed, records)
	if err != nil {
		return "", err
	}

	key := blob.ExportKey(runID, string(fmtParsed))
	if _, err := e.Store.Upload(ctx, key, bytes.NewReader(data), fmtParsed.contentType(), nil); err != nil {
		return "", New(CodeStorageFailure, err)
	}

	presignTTL := e.PresignTTL
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	url, err := e.Store.GetPresignedURL(ctx, key, presignTTL)
	if err != nil {
		return "", New(CodeStorageFailure, err)
	}
	return url, nil
}

func render(format Format, records []Record) ([]byte, error) {
	switch format {
	case FormatGeoJSON:
		return renderGeoJSON(records)
	case FormatCSV:
		return renderCSV(records)
	case FormatGPX:
		return renderGPX(records)
	case FormatKML:
		return renderKML(records)
	default:
		return nil, Errorf(CodeInvalidArgument, "unsupported format %q", format)
	}
}

// renderGeoJSON emits a FeatureCollection with one Point feature per
// record. GeoJSON coordinate order is [lon, lat].
func renderGeoJSON(records []Record) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}
	for _, rec := range records {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{rec.Lon, rec.Lat}),
			Properties: map[string]interface{}{
				"tile_id": rec.TileID,
				"score":   rec.Score,
			},
		})
	}
	return json.MarshalIndent(fc, "", "  ")
}

func renderCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"lat", "lon", "score", "tile_id"}); err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := []string{
			formatFloat(rec.Lat),
			formatFloat(rec.Lon),
			formatFloat(rec.Score),
			rec.TileID,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type gpxWaypoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Name string  `xml:"name"`
	Desc string  `xml:"desc"`
}

type gpxRoot struct {
	XMLName   xml.Name      `xml:"gpx"`
	Version   string        `xml:"version,attr"`
	Waypoints []gpxWaypoint `xml:"wpt"`
}

func renderGPX(records []Record) ([]byte, error) {
	root := gpxRoot{Version: "1.1", Waypoints: make([]gpxWaypoint, 0, len(records))}
	for _, rec := range records {
		root.Waypoints = append(root.Waypoints, gpxWaypoint{
			Lat:  rec.Lat,
			Lon:  rec.Lon,
			Name: rec.TileID,
			Desc: "Score: " + formatFloat(rec.Score),
		})
	}
	return marshalXML(root)
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"` // "lon,lat,0"
}

type kmlPlacemark struct {
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	Point       kmlPoint `xml:"Point"`
}

type kmlRoot struct {
	XMLName    xml.Name       `xml:"kml"`
	Xmlns      string         `xml:"xmlns,attr"`
	Placemarks []kmlPlacemark `xml:"Document>Placemark"`
}

func renderKML(records []Record) ([]byte, error) {
	root := kmlRoot{
		Xmlns:      "http://www.opengis.net/kml/2.2",
		Placemarks: make([]kmlPlacemark, 0, len(records)),
	}
	for _, rec := range records {
		root.Placemarks = append(root.Placemarks, kmlPlacemark{
			Name:        rec.TileID,
			Description: "Score: " + formatFloat(rec.Score),
			Point: kmlPoint{
				Coordinates: fmt.Sprintf("%s,%s,0", formatFloat(rec.Lon), formatFloat(rec.Lat)),
			},
		})
	}
	return marshalXML(root)
}

func marshalXML(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
