package models

// Precision tells consumers how exact a public coordinate is.
type Precision string

const (
	PrecisionPoint Precision = "point"
	PrecisionArea  Precision = "area"
)

// Point is a raw WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a coordinate safe to show to other users.
type Location struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Precision Precision `json:"precision"`
}

// BoundingBox is an axis-aligned coordinate rectangle, bounds inclusive.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether p lies inside the box.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}
