package bin2tif

import (
	"math"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Metadata keys of the LemnaTec Scanalyzer acquisition record.
const (
	MetadataRoot = "lemnatec_measurement_metadata"

	sectionSensorFixed    = "sensor_fixed_metadata"
	sectionGantryVariable = "gantry_system_variable_metadata"
	sectionSensorVariable = "sensor_variable_metadata"

	keyBoxX        = "location in camera box x [m]"
	keyBoxY        = "location in camera box y [m]"
	keyBoxZ        = "location in camera box z [m]"
	keyPositionX   = "position x [m]"
	keyPositionY   = "position y [m]"
	keyPositionZ   = "position z [m]"
	keyFieldOfView = "field of view at 2m in X- Y- direction [m]"
	keyHeight      = "height left image [pixel]"
	keyWidth       = "width left image [pixel]"
)

// Vec3 is a position in gantry coordinates, in meters.
type Vec3 struct {
	X, Y, Z float64
}

// Metadata holds the acquisition fields needed to georeference one capture.
type Metadata struct {
	CameraBox   Vec3   // fixed sensor offset inside the camera box
	Gantry      Vec3   // gantry position at capture time
	FieldOfView string // e.g. "[1.0 1.0]", extent at the reference distance
	Height      int    // pixel rows of the raw image
	Width       int    // pixel columns of the raw image
}

// ReadMetadata reads and parses a metadata JSON file.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading metadata")
	}
	return ParseMetadata(data)
}

// ParseMetadata decodes a metadata document. Numeric fields may be JSON
// numbers or strings holding numbers.
func ParseMetadata(data []byte) (*Metadata, error) {
	var json = jsoniter.ConfigCompatibleWithStandardLibrary

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &MetadataError{Key: MetadataRoot, Err: err}
	}
	root, ok := doc[MetadataRoot].(map[string]interface{})
	if !ok {
		return nil, &MetadataError{Key: MetadataRoot, Err: errors.New("key not found")}
	}

	p := fieldParser{root: root}
	md := &Metadata{
		CameraBox: Vec3{
			X: p.asFloat(sectionSensorFixed, keyBoxX),
			Y: p.asFloat(sectionSensorFixed, keyBoxY),
			Z: p.asFloat(sectionSensorFixed, keyBoxZ),
		},
		Gantry: Vec3{
			X: p.asFloat(sectionGantryVariable, keyPositionX),
			Y: p.asFloat(sectionGantryVariable, keyPositionY),
			Z: p.asFloat(sectionGantryVariable, keyPositionZ),
		},
		FieldOfView: p.asString(sectionSensorFixed, keyFieldOfView),
		Height:      p.asInt(sectionSensorVariable, keyHeight),
		Width:       p.asInt(sectionSensorVariable, keyWidth),
	}
	if p.err != nil {
		return nil, p.err
	}
	return md, nil
}

// fieldParser records the first failure and ignores later lookups.
type fieldParser struct {
	root map[string]interface{}
	err  error
}

func (p *fieldParser) lookup(section, key string) (interface{}, bool) {
	if p.err != nil {
		return nil, false
	}
	sec, ok := p.root[section].(map[string]interface{})
	if !ok {
		p.err = &MetadataError{Key: section, Err: errors.New("key not found")}
		return nil, false
	}
	v, ok := sec[key]
	if !ok || v == nil {
		p.err = &MetadataError{Key: section + "/" + key, Err: errors.New("key not found")}
		return nil, false
	}
	return v, true
}

func (p *fieldParser) fail(section, key string, err error) {
	p.err = &MetadataError{Key: section + "/" + key, Err: err}
}

func (p *fieldParser) asFloat(section, key string) float64 {
	v, ok := p.lookup(section, key)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			p.fail(section, key, err)
		}
		return f
	}
	p.fail(section, key, errors.Errorf("cannot convert %T to float", v))
	return 0
}

func (p *fieldParser) asInt(section, key string) int {
	v, ok := p.lookup(section, key)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			p.fail(section, key, errors.Errorf("%v is not an integer", t))
		}
		return int(t)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			p.fail(section, key, err)
		}
		return i
	}
	p.fail(section, key, errors.Errorf("cannot convert %T to int", v))
	return 0
}

func (p *fieldParser) asString(section, key string) string {
	v, ok := p.lookup(section, key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		p.fail(section, key, errors.Errorf("cannot convert %T to string", v))
	}
	return s
}

// ParseFieldOfView splits a bracketed pair such as "[1.0 1.0]" into its
// X and Y extents.
func ParseFieldOfView(s string) (fovX, fovY float64, err error) {
	tokens := strings.Fields(strings.Trim(s, "[ ]"))
	if len(tokens) != 2 {
		return 0, 0, &FieldOfViewError{Value: s, Err: errors.Errorf("expected 2 tokens, got %d", len(tokens))}
	}
	if fovX, err = strconv.ParseFloat(tokens[0], 64); err != nil {
		return 0, 0, &FieldOfViewError{Value: s, Err: err}
	}
	if fovY, err = strconv.ParseFloat(tokens[1], 64); err != nil {
		return 0, 0, &FieldOfViewError{Value: s, Err: err}
	}
	return fovX, fovY, nil
}
