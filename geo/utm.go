package geo

import "math"

// WGS84 ellipsoid and UTM projection constants.
const (
	semiMajorAxis = 6378137.0
	flattening    = 1 / 298.257223563
	scaleFactor   = 0.9996
	falseEasting  = 500000.0
	falseNorthing = 10000000.0
)

// utmProjector converts between WGS84 lon/lat and the metric transverse
// Mercator coordinates of one UTM zone. Formulas follow the standard
// series expansion (Snyder, Map Projections: A Working Manual).
type utmProjector struct {
	zone     int
	northern bool
	lon0     float64 // central meridian, radians
}

// utmZoneFor picks the UTM zone implied by a longitude and hemisphere.
func utmZoneFor(lon, lat float64) utmProjector {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone < 1 {
		zone = 1
	} else if zone > 60 {
		zone = 60
	}
	return utmProjector{
		zone:     zone,
		northern: lat >= 0,
		lon0:     (float64(zone-1)*6 - 180 + 3) * math.Pi / 180,
	}
}

// Forward projects lon/lat (degrees) to UTM easting/northing (meters).
func (p utmProjector) Forward(lon, lat float64) (easting, northing float64) {
	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180

	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := semiMajorAxis / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * (lambda - p.lon0)

	m := meridianArc(phi, e2)

	easting = scaleFactor*n*(a+
		(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(a, 5)/120) + falseEasting

	northing = scaleFactor * (m + n*tanPhi*(a*a/2+
		(5-t+9*c+4*c*c)*math.Pow(a, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(a, 6)/720))
	if !p.northern {
		northing += falseNorthing
	}
	return easting, northing
}

// Inverse projects UTM easting/northing (meters) back to lon/lat (degrees).
func (p utmProjector) Inverse(easting, northing float64) (lon, lat float64) {
	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)

	y := northing
	if !p.northern {
		y -= falseNorthing
	}

	m := y / scaleFactor
	mu := m / (semiMajorAxis * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := semiMajorAxis / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := semiMajorAxis * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := (easting - falseEasting) / (n1 * scaleFactor)

	phi := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)

	lambda := p.lon0 + (d-
		(1+2*t1+c1)*math.Pow(d, 3)/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120)/cosPhi1

	return lambda * 180 / math.Pi, phi * 180 / math.Pi
}

// meridianArc is the distance along the meridian from the equator to
// latitude phi.
func meridianArc(phi, e2 float64) float64 {
	e4 := e2 * e2
	e6 := e4 * e2
	return semiMajorAxis * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}
