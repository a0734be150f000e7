package packaging

import (
	"encoding/json"
	"time"

	"camio-service/internal/models"
)

// Defaults written to data.json when the caller supplies no text.
const (
	DefaultTitle            = "Room Scan"
	DefaultShortDescription = "Tactile map"
	DefaultLongDescription  = "3D scan of the room converted to a tactile map"
	DefaultLang             = "en"
)

// MetadataOptions overrides the descriptive fields of data.json.
type MetadataOptions struct {
	Title            string
	ShortDescription string
	LongDescription  string
	Lang             string
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// BuildMetadata creates one hotspot per color assignment, in assignment
// order. Both timestamps are set to now.
func BuildMetadata(assignments []models.ColorAssignment, opts MetadataOptions, now time.Time) models.Metadata {
	hotspots := make([]models.Hotspot, 0, len(assignments))
	for _, a := range assignments {
		hotspots = append(hotspots, models.Hotspot{
			Color:        a.Color,
			HotspotTitle: a.Label,
		})
	}
	stamp := now.UTC().Format(time.RFC3339)
	return models.Metadata{
		Title:            orDefault(opts.Title, DefaultTitle),
		ShortDescription: orDefault(opts.ShortDescription, DefaultShortDescription),
		LongDescription:  orDefault(opts.LongDescription, DefaultLongDescription),
		CreationDate:     stamp,
		LastUpdate:       stamp,
		Lang:             orDefault(opts.Lang, DefaultLang),
		Hotspots:         hotspots,
	}
}

// EncodeMetadata renders data.json with two-space indentation.
func EncodeMetadata(m models.Metadata) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
