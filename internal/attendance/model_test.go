package attendance

import (
	"testing"
	"time"
)

func TestCourseFenceDisabledWithoutCoordinates(t *testing.T) {
	lat := 6.5244
	cases := []Course{
		{Code: "CSC412"},
		{Code: "CSC412", Latitude: &lat},
	}
	for _, c := range cases {
		if c.Fence().Center != nil {
			t.Fatalf("course %+v should have no fence", c)
		}
	}
}

func TestCourseFenceCarriesRadius(t *testing.T) {
	lat, lon := 6.5244, 3.3792
	c := Course{Code: "CSC412", Latitude: &lat, Longitude: &lon, RadiusMeters: 80}
	fence := c.Fence()
	if fence.Center == nil || fence.Center.Latitude != lat || fence.Center.Longitude != lon {
		t.Fatalf("unexpected fence center %+v", fence.Center)
	}
	if fence.RadiusMeters != 80 {
		t.Fatalf("expected radius 80, got %f", fence.RadiusMeters)
	}
}

func TestCourseWindow(t *testing.T) {
	c := Course{SessionDay: "Monday", SessionTime: "10:00 AM", Duration: "2 Hours"}
	w := c.Window()
	if w.Day != "Monday" || w.StartTime != "10:00 AM" || w.Duration != "2 Hours" {
		t.Fatalf("unexpected window %+v", w)
	}
}

func TestDateOf(t *testing.T) {
	d := DateOf(time.Date(2024, 1, 1, 23, 59, 0, 0, time.Local))
	if d != "2024-01-01" {
		t.Fatalf("expected 2024-01-01, got %s", d)
	}
}
