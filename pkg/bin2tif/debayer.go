package bin2tif

// Interpolation kernels, already normalized by 4. Green sites form a
// checkerboard, so the cross kernel fills each gap from its four direct
// neighbors. Red and blue sites form a lattice with period 2 on both axes,
// so the box kernel averages two edge or four corner neighbors.
var (
	greenKernel = [9]float32{
		0, 0.25, 0,
		0.25, 1, 0.25,
		0, 0.25, 0,
	}
	redBlueKernel = [9]float32{
		0.25, 0.5, 0.25,
		0.5, 1, 0.5,
		0.25, 0.5, 0.25,
	}
)

// Demosaic performs bilinear interpolation on a raw Bayer-pattern image and
// returns the full color frame in R, G, B channel order.
//
// Each color is first scattered into its own sparse plane (zero at the sites
// of the other colors) according to p, then filled in by a 3x3 convolution.
// Pixels beyond the frame edge count as zero, so the outermost rows and
// columns come out slightly darker.
//
// m must have even Height and Width and len(m.Pix) == Height*Width. This is
// not checked.
func Demosaic(m Mosaic, p Pattern) ColorFrame {
	h, w := m.Height, m.Width

	planes := [3]Mat{
		NewMatWithSize(h, w),
		NewMatWithSize(h, w),
		NewMatWithSize(h, w),
	}
	defer func() {
		for i := range planes {
			planes[i].Close()
		}
	}()
	splitPlanes(m, p, planes)

	gk := kernelMat(greenKernel)
	defer gk.Close()
	rbk := kernelMat(redBlueKernel)
	defer rbk.Close()

	out := NewColorFrame(h, w)
	for ch := range planes {
		k := rbk
		if Channel(ch) == Green {
			k = gk
		}
		dense := NewMatWithSize(h, w)
		filter2DZero(planes[ch], &dense, k)
		interleave(out, Channel(ch), dense.DataFloat32())
		dense.Close()
	}
	return out
}

// splitPlanes writes every element of the three planes: the sample value at
// sites of that plane's color, zero everywhere else.
func splitPlanes(m Mosaic, p Pattern, planes [3]Mat) {
	data := [3][]float32{planes[Red].DataFloat32(), planes[Green].DataFloat32(), planes[Blue].DataFloat32()}
	for y := 0; y < m.Height; y++ {
		row := y * m.Width
		for x := 0; x < m.Width; x++ {
			i := row + x
			data[Red][i], data[Green][i], data[Blue][i] = 0, 0, 0
			data[p.ChannelAt(y, x)][i] = float32(m.Pix[i])
		}
	}
}

func interleave(f ColorFrame, ch Channel, plane []float32) {
	n := f.Height * f.Width
	for i := 0; i < n; i++ {
		f.Pix[i*3+int(ch)] = toUint8(plane[i])
	}
}

// toUint8 truncates toward zero and saturates to the 8-bit range.
func toUint8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

func kernelMat(k [9]float32) Mat {
	m := NewMatWithSize(3, 3)
	copy(m.DataFloat32(), k[:])
	return m
}

// DemosaicBytes reshapes raw into a height x width mosaic and demosaics it.
func DemosaicBytes(raw []uint8, height, width int, p Pattern) (ColorFrame, error) {
	m, err := NewMosaic(raw, height, width)
	if err != nil {
		return ColorFrame{}, err
	}
	return Demosaic(m, p), nil
}
