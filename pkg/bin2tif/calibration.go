package bin2tif

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Empirical corrections measured against ground control for the TERRA-REF
// field scanner (longitude) and drone orthomosaics (latitude). They are
// applied after the geodetic transform.
const (
	DefaultLonShift = 0.000020308287
	DefaultLatShift = -0.000018292
)

// DefaultReferenceDistance is the distance in meters at which the metadata
// field-of-view extents are measured.
const DefaultReferenceDistance = 2.0

// GantryAffine maps gantry (x, y) to UTM (easting, northing):
//
//	easting  = AX + BX*x + CX*y
//	northing = AY + BY*x + CY*y
type GantryAffine struct {
	AX float64 `yaml:"ax"`
	BX float64 `yaml:"bx"`
	CX float64 `yaml:"cx"`
	AY float64 `yaml:"ay"`
	BY float64 `yaml:"by"`
	CY float64 `yaml:"cy"`
}

// UTMZone identifies the projection zone the affine lands in.
type UTMZone struct {
	Number   int  `yaml:"number"`
	Northern bool `yaml:"northern"`
}

// Calibration holds the platform-specific constants of one survey rig.
type Calibration struct {
	Name              string       `yaml:"name"`
	LatShift          float64      `yaml:"lat_shift"`
	LonShift          float64      `yaml:"lon_shift"`
	ReferenceDistance float64      `yaml:"reference_distance"`
	Affine            GantryAffine `yaml:"gantry_to_utm"`
	Zone              UTMZone      `yaml:"utm_zone"`
}

// DefaultCalibration returns the Maricopa field scanner constants.
func DefaultCalibration() Calibration {
	return Calibration{
		Name:              "terraref-scanalyzer",
		LatShift:          DefaultLatShift,
		LonShift:          DefaultLonShift,
		ReferenceDistance: DefaultReferenceDistance,
		Affine: GantryAffine{
			AX: 409012.2032,
			BX: 0.009,
			CX: -0.9986,
			AY: 3659974.971,
			BY: 1.0002,
			CY: 0.0078,
		},
		Zone: UTMZone{Number: 12, Northern: true},
	}
}

// LoadCalibration reads a YAML platform profile. Fields absent from the file
// keep their DefaultCalibration values.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Calibration{}, errors.Wrap(err, "reading platform profile")
	}
	return ParseCalibration(data)
}

func ParseCalibration(data []byte) (Calibration, error) {
	cal := DefaultCalibration()
	if err := yaml.Unmarshal(data, &cal); err != nil {
		return Calibration{}, errors.Wrap(err, "parsing platform profile")
	}
	if err := cal.Validate(); err != nil {
		return Calibration{}, err
	}
	return cal, nil
}

func (c Calibration) Validate() error {
	if c.ReferenceDistance <= 0 {
		return errors.Errorf("reference_distance must be positive, got %v", c.ReferenceDistance)
	}
	if c.Zone.Number < 1 || c.Zone.Number > 60 {
		return errors.Errorf("utm_zone.number must be in [1, 60], got %d", c.Zone.Number)
	}
	return nil
}
