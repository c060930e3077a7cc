package models

// Location is a WGS84 position as sent by clients.
type Location struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

// NearestRequest queries a loaded network. Targets are the listed facility
// IDs, or every facility of TargetKind; with neither, outlets are used.
type NearestRequest struct {
	Source     Location `json:"source"`
	TargetIDs  []string `json:"target_ids,omitempty"`
	TargetKind string   `json:"target_kind,omitempty"`
}

// FacilityInput is a named target point supplied inline.
type FacilityInput struct {
	ID       string   `json:"id" binding:"required"`
	Kind     string   `json:"kind,omitempty"`
	Location Location `json:"location"`
}

// AdhocRequest carries its own pipe geometry; each pipe is a list of
// [longitude, latitude] pairs.
type AdhocRequest struct {
	Pipes   [][][2]float64  `json:"pipes"`
	Source  Location        `json:"source"`
	Targets []FacilityInput `json:"targets" binding:"dive"`
}

// BatchRequest matches every facility of SourceKind (default inlets) to the
// nearest facility of TargetKind (default outlets).
type BatchRequest struct {
	SourceKind string `json:"source_kind,omitempty"`
	TargetKind string `json:"target_kind,omitempty"`
}
