package geolib

// Record is the only output type of the engine: a normalized view over
// heterogeneous provider schemas.
//
// Accurate is true only when a provider affirmatively returned usable
// geolocation data. Degraded records (validation rejects, exhausted
// provider chains) carry Accurate=false and a populated Error.
type Record struct {
	Source      string   `json:"source"`
	IP          string   `json:"ip"`
	CountryCode string   `json:"country_code"`
	CountryName string   `json:"country_name"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	Timezone    string   `json:"timezone"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Accurate    bool     `json:"accurate"`
	Error       string   `json:"error,omitempty"`
}

func (r *Record) OK() bool {
	return r.Accurate && r.CountryCode != ""
}

// ProviderResult is what a provider adapter hands back to the engine.
// CountryCode is the only mandatory field; everything else is whatever
// the upstream happened to know.
type ProviderResult struct {
	CountryCode string
	CountryName string
	City        string
	Region      string
	Timezone    string
	Latitude    *float64
	Longitude   *float64
}
