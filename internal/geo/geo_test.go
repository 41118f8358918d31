package geo

import (
	"math"
	"testing"
)

func TestDistanceOneDegreeLongitudeAtEquator(t *testing.T) {
	d := Distance(0, 0, 0, 1)
	// one degree of longitude at the equator is about 111,195 m
	if math.Abs(d-111195) > 111195*0.01 {
		t.Fatalf("expected ~111195m, got %.0f", d)
	}
}

func TestDistanceZeroForSamePoint(t *testing.T) {
	if d := Distance(6.5244, 3.3792, 6.5244, 3.3792); d != 0 {
		t.Fatalf("expected 0m for identical points, got %f", d)
	}
}

func TestCheckNoRegisteredLocationAlwaysPasses(t *testing.T) {
	res := Check(Fence{}, Point{Latitude: 89, Longitude: 179})
	if !res.WithinRange {
		t.Fatalf("course without a location must skip geofencing")
	}
}

func TestCheckInsideRadius(t *testing.T) {
	center := &Point{Latitude: 6.5244, Longitude: 3.3792}
	res := Check(Fence{Center: center, RadiusMeters: 50}, Point{Latitude: 6.52441, Longitude: 3.37921})
	if !res.WithinRange {
		t.Fatalf("a point ~2m away should be inside a 50m fence, distance %.0f", res.DistanceMeters)
	}
}

func TestCheckOutsideRadiusReportsDistance(t *testing.T) {
	center := &Point{Latitude: 0, Longitude: 0}
	// ~75m east of the center
	device := Point{Latitude: 0, Longitude: 75.0 / 111195.0}
	res := Check(Fence{Center: center, RadiusMeters: 50}, device)
	if res.WithinRange {
		t.Fatalf("75m should be outside a 50m fence")
	}
	if res.DistanceMeters < 74 || res.DistanceMeters > 76 {
		t.Fatalf("expected ~75m reported, got %.0f", res.DistanceMeters)
	}
}

func TestCheckZeroRadiusFallsBackToDefault(t *testing.T) {
	center := &Point{Latitude: 0, Longitude: 0}
	near := Point{Latitude: 0, Longitude: 30.0 / 111195.0}
	if res := Check(Fence{Center: center}, near); !res.WithinRange {
		t.Fatalf("30m should be inside the default 50m fence, got %.0f", res.DistanceMeters)
	}
	far := Point{Latitude: 0, Longitude: 60.0 / 111195.0}
	if res := Check(Fence{Center: center}, far); res.WithinRange {
		t.Fatalf("60m should be outside the default 50m fence")
	}
}
