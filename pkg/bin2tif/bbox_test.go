package bin2tif

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func scenarioMetadata() *Metadata {
	return &Metadata{
		CameraBox:   Vec3{0, 0, 2},
		Gantry:      Vec3{0, 0, 0},
		FieldOfView: "[1.0 1.0]",
		Height:      4,
		Width:       4,
	}
}

// planar returns the gantry coordinates unchanged as (lat, lon).
var planar = TransformerFunc(func(x, y float64) (float64, float64, error) { return x, y, nil })

func TestComputeFootprint(t *testing.T) {
	fp, err := ComputeFootprint(scenarioMetadata(), 0, DefaultCalibration())
	if err != nil {
		t.Fatal(err)
	}
	// atan(0.25) half-angle at 2 m height gives a 1 m footprint.
	if math.Abs(fp.LengthX-1) > 1e-12 || math.Abs(fp.LengthY-1) > 1e-12 {
		t.Errorf("lengths = %v, %v, want 1, 1", fp.LengthX, fp.LengthY)
	}
	if math.Abs(fp.HalfAngleX-math.Atan(0.25)) > 1e-15 {
		t.Errorf("half angle = %v", fp.HalfAngleX)
	}
	if fp.XNorth <= fp.XSouth || fp.YWest <= fp.YEast {
		t.Errorf("corner order: %+v", fp)
	}
	if math.Abs(fp.XNorth-0.5) > 1e-12 || math.Abs(fp.YEast+0.5) > 1e-12 {
		t.Errorf("corners: %+v", fp)
	}
}

func TestComputeFootprintAbsolutePosition(t *testing.T) {
	md := &Metadata{
		CameraBox:   Vec3{0.877, 2.276, 0.578},
		Gantry:      Vec3{207.013, 22.135, 0.63},
		FieldOfView: "[1.0 1.5]",
	}
	fp, err := ComputeFootprint(md, 1.25, DefaultCalibration())
	if err != nil {
		t.Fatal(err)
	}
	g, b, z := md.Gantry, md.CameraBox, 1.25
	want := Vec3{g.X + b.X, g.Y + b.Y, g.Z + z + b.Z}
	if fp.Position != want {
		t.Errorf("position = %+v, want %+v", fp.Position, want)
	}
}

func TestFootprintMonotonicInZOffset(t *testing.T) {
	md := scenarioMetadata()
	cal := DefaultCalibration()
	prev, err := ComputeFootprint(md, 0, cal)
	if err != nil {
		t.Fatal(err)
	}
	for _, z := range []float64{0.1, 0.5, 1, 2.5, 10} {
		fp, err := ComputeFootprint(md, z, cal)
		if err != nil {
			t.Fatal(err)
		}
		if fp.LengthX <= prev.LengthX || fp.LengthY <= prev.LengthY {
			t.Errorf("z=%v: lengths %v,%v not greater than %v,%v", z, fp.LengthX, fp.LengthY, prev.LengthX, prev.LengthY)
		}
		prev = fp
	}
}

func TestResolveAppliesShifts(t *testing.T) {
	cal := DefaultCalibration()
	r := &Resolver{Transform: planar, Calibration: cal}
	bbox, err := r.Resolve(scenarioMetadata(), 0)
	if err != nil {
		t.Fatal(err)
	}

	fp, _ := ComputeFootprint(scenarioMetadata(), 0, cal)
	want := [4]float64{
		fp.XSouth + DefaultLatShift,
		fp.XNorth + DefaultLatShift,
		fp.YEast + DefaultLonShift,
		fp.YWest + DefaultLonShift,
	}
	if got := bbox.Tuple(); got != want {
		t.Errorf("Tuple() = %v, want %v", got, want)
	}
}

func TestResolveNormalizesSwappedCorners(t *testing.T) {
	// Mirror both axes so the "north-west" corner lands south-east.
	mirrored := TransformerFunc(func(x, y float64) (float64, float64, error) {
		return 33 - x*1e-5, -111 + y*1e-5, nil
	})
	for _, tr := range []Transformer{mirrored, planar, NewScanalyzerTransform(DefaultCalibration())} {
		r := &Resolver{Transform: tr, Calibration: DefaultCalibration()}
		bbox, err := r.Resolve(scenarioMetadata(), 0)
		if err != nil {
			t.Fatal(err)
		}
		if !(bbox.South < bbox.North) || !(bbox.West < bbox.East) {
			t.Errorf("%T: bbox not ordered: %v", tr, bbox)
		}
	}
}

func TestResolveScenario(t *testing.T) {
	cal := DefaultCalibration()
	tr := NewScanalyzerTransform(cal)
	r := NewResolver(cal)

	bbox, err := r.Resolve(scenarioMetadata(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !(bbox.South < bbox.North) || !(bbox.West < bbox.East) {
		t.Fatalf("bbox not ordered: %v", bbox)
	}

	nwLat, nwLon, err := tr.ToGeodetic(0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	seLat, seLon, err := tr.ToGeodetic(-0.5, -0.5)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range []float64{
		bbox.North - nwLat,
		bbox.South - seLat,
		bbox.West - nwLon,
		bbox.East - seLon,
	} {
		if math.Abs(d) > 0.01 {
			t.Errorf("bbox %v strays %v degrees from the raw transform", bbox, d)
		}
	}
	// About 1 m of footprint, so about 1e-5 degrees on each side.
	if h := bbox.North - bbox.South; h < 5e-6 || h > 2e-5 {
		t.Errorf("latitude span %v", h)
	}
}

func TestResolveTransformError(t *testing.T) {
	// The affine offsets put the footprint far outside any UTM zone.
	cal := DefaultCalibration()
	cal.Affine.AX = 5e7
	_, err := NewResolver(cal).Resolve(scenarioMetadata(), 0)
	if err == nil {
		t.Fatal("expected an out-of-range easting to fail")
	}

	boom := errors.New("boom")
	r := &Resolver{
		Transform:   TransformerFunc(func(x, y float64) (float64, float64, error) { return 0, 0, boom }),
		Calibration: DefaultCalibration(),
	}
	if _, err := r.Resolve(scenarioMetadata(), 0); !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped transform error", err)
	}
}

func TestResolveDeterministic(t *testing.T) {
	r := NewResolver(DefaultCalibration())
	md := &Metadata{
		CameraBox:   Vec3{0.877, 2.276, 0.578},
		Gantry:      Vec3{207.013, 22.135, 0.63},
		FieldOfView: "[1.857 1.246]",
	}
	first, err := r.Resolve(md, 0.76)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := r.Resolve(md, 0.76)
		if again != first {
			t.Fatalf("run %d: %v != %v", i, again, first)
		}
	}
}

func TestResolveBadFieldOfView(t *testing.T) {
	md := scenarioMetadata()
	md.FieldOfView = "[1.0]"
	_, err := NewResolver(DefaultCalibration()).Resolve(md, 0)
	var fe *FieldOfViewError
	if !errors.As(err, &fe) {
		t.Errorf("got %v, want *FieldOfViewError", err)
	}
}

func TestGetBoundingBox(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "meta.json", []byte(metadataJSON(Vec3{0, 0, 2}, Vec3{}, "[1.0 1.0]", 4, 6)))

	r := NewResolver(DefaultCalibration())
	bbox, h, w, err := r.GetBoundingBox(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if h != 4 || w != 6 {
		t.Errorf("dimensions = %dx%d, want 4x6", h, w)
	}
	want, _ := r.Resolve(scenarioMetadata(), 0)
	if bbox != want {
		t.Errorf("bbox = %v, want %v", bbox, want)
	}

	_, _, _, err = r.GetBoundingBox(filepath.Join(dir, "missing.json"), 0)
	if err == nil {
		t.Error("expected error for missing metadata")
	}
}
