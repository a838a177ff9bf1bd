package bin2tif

import (
	UTM "github.com/im7mortal/UTM"
	"github.com/pkg/errors"
)

// Transformer converts planar gantry coordinates in meters to geodetic
// latitude and longitude in degrees.
type Transformer interface {
	ToGeodetic(x, y float64) (lat, lon float64, err error)
}

// TransformerFunc adapts a plain function to Transformer.
type TransformerFunc func(x, y float64) (lat, lon float64, err error)

func (f TransformerFunc) ToGeodetic(x, y float64) (lat, lon float64, err error) { return f(x, y) }

// ScanalyzerTransform maps field scanner gantry coordinates to WGS84 via a
// fitted affine into UTM followed by the inverse UTM projection.
type ScanalyzerTransform struct {
	Affine GantryAffine
	Zone   UTMZone
}

func NewScanalyzerTransform(cal Calibration) ScanalyzerTransform {
	return ScanalyzerTransform{Affine: cal.Affine, Zone: cal.Zone}
}

func (t ScanalyzerTransform) ToGeodetic(x, y float64) (lat, lon float64, err error) {
	easting, northing := t.ToUTM(x, y)
	return UTMToLatLon(easting, northing, t.Zone)
}

func (t ScanalyzerTransform) ToUTM(x, y float64) (easting, northing float64) {
	a := t.Affine
	easting = a.AX + a.BX*x + a.CX*y
	northing = a.AY + a.BY*x + a.CY*y
	return easting, northing
}

// UTMToLatLon inverts the UTM projection for the given zone. Coordinates
// outside the projection's valid easting and northing range are an error.
func UTMToLatLon(easting, northing float64, zone UTMZone) (lat, lon float64, err error) {
	if zone.Number < 1 || zone.Number > 60 {
		return 0, 0, errors.Errorf("UTM zone %d out of range [1, 60]", zone.Number)
	}
	lat, lon, err = UTM.ToLatLon(easting, northing, zone.Number, "", zone.Northern)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "UTM zone %d (%.3f, %.3f)", zone.Number, easting, northing)
	}
	return lat, lon, nil
}
