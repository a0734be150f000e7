package models

import "fmt"

// RGB is an 8-bit color. It encodes as a JSON array of three numbers.
type RGB [3]uint8

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// ColorAssignment binds an instance label such as "Wall 1" to the color it
// was painted with on the color map.
type ColorAssignment struct {
	Label    string   `json:"label"`
	Category Category `json:"category"`
	Color    RGB      `json:"color"`
}

// Hotspot is one interactive region of a CamIO map.
type Hotspot struct {
	Color              RGB     `json:"color"`
	HotspotTitle       string  `json:"hotspotTitle"`
	HotspotDescription string  `json:"hotspotDescription"`
	Sound              *string `json:"sound,omitempty"`
}

// Metadata is the content of data.json inside a .camio archive.
type Metadata struct {
	Title            string    `json:"title"`
	ShortDescription string    `json:"shortDescription"`
	LongDescription  string    `json:"longDescription"`
	CreationDate     string    `json:"creationDate"`
	LastUpdate       string    `json:"lastUpdate"`
	Lang             string    `json:"lang"`
	Hotspots         []Hotspot `json:"hotspots"`
}
