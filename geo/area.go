package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"agridefender/models"
)

// areaVertices is the resolution of generated polygons.
const areaVertices = 64

// MapThreatArea buffers a detection point by radiusMeters and returns the
// resulting polygon in WGS84. Returns nil for a non-Point location.
func MapThreatArea(location *geojson.Geometry, radiusMeters float64) *geojson.Geometry {
	lon, lat, ok := models.PointCoordinates(location)
	if !ok {
		return nil
	}
	return spreadArea(lon, lat, radiusMeters, PatternCircle, 0, 0, 0)
}

// spreadArea builds the affected-area polygon for one prediction day. The
// shape is constructed in the UTM zone implied by the center point so that
// distances are metric, then reprojected to WGS84 with a closed ring.
func spreadArea(lon, lat, distance float64, pattern AreaPattern, windDirection, windSpeed, windFactor float64) *geojson.Geometry {
	if distance <= 0 {
		distance = 1
	}

	projector := utmZoneFor(lon, lat)
	centerE, centerN := projector.Forward(lon, lat)

	// Compass bearing -> math angle in the easting/northing plane.
	axisAngle := (90 - windDirection) * math.Pi / 180

	ring := make(orb.Ring, 0, areaVertices+1)
	for k := 0; k < areaVertices; k++ {
		theta := 2 * math.Pi * float64(k) / areaVertices

		var du, dv float64
		switch pattern {
		case PatternEllipse:
			elongation := 1 + windSpeed*windFactor/10
			du = distance * elongation * math.Cos(theta)
			dv = distance / elongation * math.Sin(theta)
		case PatternCustom:
			// Engineered agents: strongly wind-stretched with
			// deterministic lobes rather than a smooth ellipse.
			elongation := 1 + windSpeed*windFactor/6
			lobes := 1 + 0.15*math.Sin(3*theta) + 0.1*math.Cos(5*theta)
			du = distance * elongation * lobes * math.Cos(theta)
			dv = distance / elongation * lobes * math.Sin(theta)
		default:
			du = distance * math.Cos(theta)
			dv = distance * math.Sin(theta)
		}

		// Rotate the local shape so its major axis follows the wind.
		de := du*math.Cos(axisAngle) - dv*math.Sin(axisAngle)
		dn := du*math.Sin(axisAngle) + dv*math.Cos(axisAngle)

		vertexLon, vertexLat := projector.Inverse(centerE+de, centerN+dn)
		ring = append(ring, orb.Point{vertexLon, vertexLat})
	}
	ring = append(ring, ring[0])

	return geojson.NewGeometry(orb.Polygon{ring})
}

// shiftPoint moves a point by distanceMeters along a compass bearing,
// going through the local UTM zone for metric accuracy.
func shiftPoint(lon, lat, distanceMeters, bearingDegrees float64) (float64, float64) {
	if distanceMeters == 0 {
		return lon, lat
	}
	projector := utmZoneFor(lon, lat)
	easting, northing := projector.Forward(lon, lat)

	bearing := bearingDegrees * math.Pi / 180
	easting += distanceMeters * math.Sin(bearing)
	northing += distanceMeters * math.Cos(bearing)

	return projector.Inverse(easting, northing)
}
