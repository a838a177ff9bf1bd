//go:build !purego && !js

package bin2tif

import (
	"image"

	"gocv.io/x/gocv"
)

// Mat wraps gocv.Mat for the native OpenCV backend.
type Mat struct {
	m gocv.Mat
}

func NewMatWithSize(rows, cols int) Mat { return Mat{m: gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV32F)} }
func (mat *Mat) Close() { mat.m.Close() }

func (mat Mat) DataFloat32() []float32 {
	data, _ := mat.m.DataPtrFloat32()
	return data
}

// --- CV operations ---

// filter2DZero correlates src with kernel, treating pixels outside the frame
// as zero.
func filter2DZero(src Mat, dst *Mat, kernel Mat) {
	gocv.Filter2D(src.m, &dst.m, gocv.MatTypeCV32F, kernel.m, image.Pt(-1, -1), 0, gocv.BorderConstant)
}

// rotate90CCW rotates interleaved 3-channel 8-bit pixels a quarter turn
// counterclockwise. The result has the height and width swapped.
func rotate90CCW(pix []uint8, height, width int) ([]uint8, error) {
	src, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, pix)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Rotate(src, &dst, gocv.Rotate90CounterClockwise)

	return dst.ToBytes(), nil
}
