package bin2tif

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// BoundingBox is the ground footprint of a capture in degrees.
type BoundingBox struct {
	South float64
	North float64
	West  float64
	East  float64
}

// Tuple returns (south, north, west, east), the order the GeoTIFF writer
// expects.
func (b BoundingBox) Tuple() [4]float64 {
	return [4]float64{b.South, b.North, b.West, b.East}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("{South=%.9f, North=%.9f, West=%.9f, East=%.9f}", b.South, b.North, b.West, b.East)
}

// Footprint is the sensor's ground rectangle in gantry coordinates.
type Footprint struct {
	Position Vec3 // absolute sensor position; Z is height above ground

	HalfAngleX float64 // radians
	HalfAngleY float64
	LengthX    float64 // meters on the ground
	LengthY    float64

	XNorth float64
	XSouth float64
	YWest  float64
	YEast  float64
}

// ComputeFootprint projects the sensor's field of view onto the ground.
// zOffset accounts for mount height not captured in the fixed metadata.
func ComputeFootprint(md *Metadata, zOffset float64, cal Calibration) (Footprint, error) {
	fovX, fovY, err := ParseFieldOfView(md.FieldOfView)
	if err != nil {
		return Footprint{}, err
	}

	pos := Vec3{
		X: md.Gantry.X + md.CameraBox.X,
		Y: md.Gantry.Y + md.CameraBox.Y,
		Z: md.Gantry.Z + zOffset + md.CameraBox.Z,
	}

	fp := Footprint{Position: pos}
	fp.HalfAngleX = math.Atan((0.5 * fovX) / cal.ReferenceDistance)
	fp.HalfAngleY = math.Atan((0.5 * fovY) / cal.ReferenceDistance)
	fp.LengthX = 2 * pos.Z * math.Tan(fp.HalfAngleX)
	fp.LengthY = 2 * pos.Z * math.Tan(fp.HalfAngleY)

	// Gantry x grows northward and y grows westward.
	fp.XNorth = pos.X + fp.LengthX/2
	fp.XSouth = pos.X - fp.LengthX/2
	fp.YWest = pos.Y + fp.LengthY/2
	fp.YEast = pos.Y - fp.LengthY/2
	return fp, nil
}

// Resolver turns acquisition metadata into a calibrated geodetic bounding box.
type Resolver struct {
	Transform   Transformer
	Calibration Calibration
}

// NewResolver returns a Resolver using the Scanalyzer transform for cal.
func NewResolver(cal Calibration) *Resolver {
	return &Resolver{Transform: NewScanalyzerTransform(cal), Calibration: cal}
}

// Resolve converts the footprint's north-west and south-east corners to
// latitude/longitude and applies the platform shifts. The result is ordered
// so South <= North and West <= East whichever corner the transform placed
// further north or west.
func (r *Resolver) Resolve(md *Metadata, zOffset float64) (BoundingBox, error) {
	fp, err := ComputeFootprint(md, zOffset, r.Calibration)
	if err != nil {
		return BoundingBox{}, err
	}

	nwLat, nwLon, err := r.Transform.ToGeodetic(fp.XNorth, fp.YWest)
	if err != nil {
		return BoundingBox{}, errors.Wrap(err, "north-west corner")
	}
	seLat, seLon, err := r.Transform.ToGeodetic(fp.XSouth, fp.YEast)
	if err != nil {
		return BoundingBox{}, errors.Wrap(err, "south-east corner")
	}

	nwLat += r.Calibration.LatShift
	seLat += r.Calibration.LatShift
	nwLon += r.Calibration.LonShift
	seLon += r.Calibration.LonShift

	return BoundingBox{
		South: math.Min(seLat, nwLat),
		North: math.Max(seLat, nwLat),
		West:  math.Min(nwLon, seLon),
		East:  math.Max(nwLon, seLon),
	}, nil
}

// GetBoundingBox reads the metadata file at path and returns the calibrated
// bounding box along with the raw image height and width it declares.
func (r *Resolver) GetBoundingBox(path string, zOffset float64) (BoundingBox, int, int, error) {
	md, err := ReadMetadata(path)
	if err != nil {
		return BoundingBox{}, 0, 0, err
	}
	bbox, err := r.Resolve(md, zOffset)
	if err != nil {
		return BoundingBox{}, 0, 0, err
	}
	return bbox, md.Height, md.Width, nil
}
