package db

// Metric is one entry of a site's analytics. Value is whatever the client
// sent: usually a JSON number, but strings such as "n/a" are kept as-is.
type Metric struct {
	Unit  string `json:"unit"`
	Value any    `json:"value,omitempty"`
}

// Analytics maps a metric name to its latest reading. The metric set is
// free-form and differs between sites.
type Analytics map[string]Metric

// GeoPoint is one vertex of a site's outline.
type GeoPoint struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Clone returns a shallow copy so a snapshot cannot alias the live map.
func (a Analytics) Clone() Analytics {
	if a == nil {
		return nil
	}
	out := make(Analytics, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
