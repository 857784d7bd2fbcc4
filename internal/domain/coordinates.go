package domain

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// LonLat returns the pair in [lon, lat] order as routing APIs expect.
func (c Coordinates) LonLat() []float64 { return []float64{c.Lon, c.Lat} }
