package models

// ExportRequest is the body of POST /exports.
type ExportRequest struct {
	Scan             Scan         `json:"scan" msgpack:"scan"`
	RenderConfig     RenderConfig `json:"renderConfig,omitempty" msgpack:"renderConfig,omitempty"`
	Profile          string       `json:"profile,omitempty" msgpack:"profile,omitempty"`
	Rotation         float64      `json:"rotation" msgpack:"rotation"`
	Title            string       `json:"title,omitempty" msgpack:"title,omitempty"`
	ShortDescription string       `json:"shortDescription,omitempty" msgpack:"shortDescription,omitempty"`
	LongDescription  string       `json:"longDescription,omitempty" msgpack:"longDescription,omitempty"`
	Lang             string       `json:"lang,omitempty" msgpack:"lang,omitempty"`
}

// PreviewRequest is the body of POST /preview.
type PreviewRequest struct {
	Scan         Scan         `json:"scan" msgpack:"scan"`
	RenderConfig RenderConfig `json:"renderConfig,omitempty" msgpack:"renderConfig,omitempty"`
	Profile      string       `json:"profile,omitempty" msgpack:"profile,omitempty"`
	Rotation     float64      `json:"rotation" msgpack:"rotation"`
}
