package geo

import "math"

const earthRadiusMeters = 6371000

// DefaultRadiusMeters applies when a course registers a location without
// an explicit radius.
const DefaultRadiusMeters = 50

// Point is a device or course coordinate in floating-point degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Fence is a course's registered check-in area. A nil Center disables
// geofencing for the course entirely.
type Fence struct {
	Center       *Point
	RadiusMeters float64
}

// Result reports a geofence check outcome.
type Result struct {
	WithinRange    bool
	DistanceMeters float64
}

// Distance returns the great-circle distance in meters between two
// coordinates using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Check decides whether the device is inside the course's fence.
// Courses without a registered location always pass.
func Check(fence Fence, device Point) Result {
	if fence.Center == nil {
		return Result{WithinRange: true}
	}
	radius := fence.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}
	d := Distance(fence.Center.Latitude, fence.Center.Longitude, device.Latitude, device.Longitude)
	return Result{WithinRange: d <= radius, DistanceMeters: math.Round(d)}
}
