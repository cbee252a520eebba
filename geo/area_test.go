package geo

import (
	"math"
	"testing"

	"agridefender/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func polygonRing(t *testing.T, g *geojson.Geometry) orb.Ring {
	t.Helper()
	polygon, ok := g.Geometry().(orb.Polygon)
	if !ok {
		t.Fatalf("expected a polygon geometry, got %T", g.Geometry())
	}
	if len(polygon) != 1 {
		t.Fatalf("expected a single ring, got %d", len(polygon))
	}
	return polygon[0]
}

func TestMapThreatAreaCircle(t *testing.T) {
	t.Parallel()

	const radius = 500.0
	lng, lat := -0.19, 5.6

	area := MapThreatArea(models.NewPoint(lng, lat), radius)
	if area == nil {
		t.Fatal("expected an area polygon")
	}

	ring := polygonRing(t, area)
	if len(ring) != areaVertices+1 {
		t.Fatalf("expected %d ring points, got %d", areaVertices+1, len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Fatal("ring must be closed")
	}

	// Every vertex sits radius meters from the center in UTM space.
	projector := utmZoneFor(lng, lat)
	centerE, centerN := projector.Forward(lng, lat)
	for _, vertex := range ring {
		e, n := projector.Forward(vertex[0], vertex[1])
		dist := math.Hypot(e-centerE, n-centerN)
		if math.Abs(dist-radius) > 1.0 {
			t.Fatalf("vertex distance %f deviates from radius %f", dist, radius)
		}
	}
}

func TestMapThreatAreaNonPoint(t *testing.T) {
	t.Parallel()

	polygon := geojson.NewGeometry(orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}})
	if area := MapThreatArea(polygon, 500); area != nil {
		t.Fatal("non-point locations must not produce an area")
	}
}

func TestSpreadAreaEllipseElongation(t *testing.T) {
	t.Parallel()

	lng, lat := -0.19, 5.6
	const distance = 1000.0

	// Eastward wind, strong enough to visibly stretch the ellipse.
	area := spreadArea(lng, lat, distance, PatternEllipse, 90, 20, 0.8)
	ring := polygonRing(t, area)

	projector := utmZoneFor(lng, lat)
	centerE, centerN := projector.Forward(lng, lat)

	minDist, maxDist := math.Inf(1), 0.0
	for _, vertex := range ring[:len(ring)-1] {
		e, n := projector.Forward(vertex[0], vertex[1])
		dist := math.Hypot(e-centerE, n-centerN)
		minDist = math.Min(minDist, dist)
		maxDist = math.Max(maxDist, dist)
	}

	// elongation = 1 + 20*0.8/10 = 2.6
	if math.Abs(maxDist-distance*2.6) > 5 {
		t.Fatalf("expected major axis near %f, got %f", distance*2.6, maxDist)
	}
	if math.Abs(minDist-distance/2.6) > 5 {
		t.Fatalf("expected minor axis near %f, got %f", distance/2.6, minDist)
	}
}

func TestShiftPointCardinalBearings(t *testing.T) {
	t.Parallel()

	lng, lat := -0.19, 5.6
	const meters = 1000.0

	northLng, northLat := shiftPoint(lng, lat, meters, 0)
	if northLat <= lat {
		t.Fatalf("bearing 0 must move north, got lat %f", northLat)
	}
	if math.Abs(northLng-lng) > 1e-4 {
		t.Fatalf("bearing 0 must keep longitude, got %f", northLng)
	}
	// A degree of latitude is roughly 110.6 km at the equator.
	if delta := (northLat - lat) * 110600; math.Abs(delta-meters) > 50 {
		t.Fatalf("northward shift is %f m, expected ~%f", delta, meters)
	}

	eastLng, eastLat := shiftPoint(lng, lat, meters, 90)
	if eastLng <= lng {
		t.Fatalf("bearing 90 must move east, got lng %f", eastLng)
	}
	if math.Abs(eastLat-lat) > 1e-4 {
		t.Fatalf("bearing 90 must keep latitude, got %f", eastLat)
	}

	sameLng, sameLat := shiftPoint(lng, lat, 0, 45)
	if sameLng != lng || sameLat != lat {
		t.Fatal("zero distance must not move the point")
	}
}
