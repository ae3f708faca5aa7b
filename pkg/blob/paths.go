package blob

import "fmt"

// Key layout for run artifacts. Everything a run produces lives under
// runs/{runID}/ so a whole run can be listed or deleted by prefix.

// RunPrefix returns the key prefix for a run's artifacts.
func RunPrefix(runID string) string {
	return "runs/" + runID + "/"
}

// ResultsKey returns the key of a run's results table.
func ResultsKey(runID string) string {
	return RunPrefix(runID) + "results.parquet"
}

// ThumbsPrefix returns the key prefix for a run's tile thumbnails.
func ThumbsPrefix(runID string) string {
	return RunPrefix(runID) + "thumbs"
}

// ThumbKey returns the key of a single tile thumbnail.
func ThumbKey(runID, tileID string) string {
	return fmt.Sprintf("%s/%s.png", ThumbsPrefix(runID), tileID)
}

// ExportKey returns the key of an export artifact for the given format.
// Formats map one-to-one to file extensions.
func ExportKey(runID, format string) string {
	return fmt.Sprintf("%spositives.%s", RunPrefix(runID), format)
}

// ConfirmationsKey returns the key of a run's reviewer confirmations.
func ConfirmationsKey(runID string) string {
	return RunPrefix(runID) + "confirmations.json"
}

// ModelPrefix returns the key prefix for a model version's artifacts.
func ModelPrefix(version string) string {
	return "models/" + version
}

// ModelWeightsKey returns the key of a model version's weights.
func ModelWeightsKey(version string) string {
	return ModelPrefix(version) + "/model.pth"
}

// ModelConfigKey returns the key of a model version's config.
func ModelConfigKey(version string) string {
	return ModelPrefix(version) + "/config.json"
}

// ModelMetadataKey returns the key of a model version's metadata.
func ModelMetadataKey(version string) string {
	return ModelPrefix(version) + "/metadata.json"
}
