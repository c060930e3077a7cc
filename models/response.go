package models

type ApiResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ApiError   `json:"error,omitempty"`
	Meta      *MetaData   `json:"meta,omitempty"`
	RequestID string      `json:"request_id"`
}

type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeNetworkNotFound = "NETWORK_NOT_FOUND"
	CodeInternal        = "INTERNAL_ERROR"
)

type MetaData struct {
	ProcessTime string `json:"process_time_ms"`
	ApiVersion  string `json:"api_version"`
	ResultCount *int   `json:"result_count,omitempty"`
}

// NearestResult reports a nearest facility query. Found is false when no
// target is connected to the source.
type NearestResult struct {
	Found           bool     `json:"found"`
	NearestTargetID string   `json:"nearest_target_id,omitempty"`
	DistanceMeters  float64  `json:"distance_meters"`
	SourceNodeID    string   `json:"source_node_id,omitempty"`
	TargetNodeID    string   `json:"target_node_id,omitempty"`
	Path            []string `json:"path,omitempty"`
}

type NetworkSummary struct {
	Name       string `json:"name"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	Components int    `json:"components"`
	Facilities int    `json:"facilities"`
}

type FacilityView struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Location Location `json:"location"`
}

type BatchResponse struct {
	Results     map[string]NearestResult `json:"results"`
	Unreachable []string                 `json:"unreachable"`
}
