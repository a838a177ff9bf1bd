//go:build purego || js

package bin2tif

// Mat is a pure Go 2D float32 matrix.
type Mat struct {
	data []float32
	rows int
	cols int
}

func NewMatWithSize(rows, cols int) Mat {
	return Mat{
		data: make([]float32, rows*cols),
		rows: rows,
		cols: cols,
	}
}

func (m *Mat) Close() {
	m.data = nil
	m.rows = 0
	m.cols = 0
}

// DataFloat32 returns the backing float32 slice.
func (m Mat) DataFloat32() []float32 {
	return m.data
}

// --- Pure Go CV operations ---

// filter2DZero correlates src with kernel, treating pixels outside the frame
// as zero.
func filter2DZero(src Mat, dst *Mat, kernel Mat) {
	rows, cols := src.rows, src.cols
	srcData := src.data
	k := kernel.data
	kRows, kCols := kernel.rows, kernel.cols
	kyHalf, kxHalf := kRows/2, kCols/2

	if dst.rows != rows || dst.cols != cols || dst.data == nil {
		*dst = NewMatWithSize(rows, cols)
	}
	dstData := dst.data

	border := func(r, c int) float32 {
		var sum float32
		for ky := 0; ky < kRows; ky++ {
			rr := r + ky - kyHalf
			if rr < 0 || rr >= rows {
				continue
			}
			for kx := 0; kx < kCols; kx++ {
				cc := c + kx - kxHalf
				if cc < 0 || cc >= cols {
					continue
				}
				sum += srcData[rr*cols+cc] * k[ky*kCols+kx]
			}
		}
		return sum
	}

	for r := 0; r < rows; r++ {
		interiorRow := r >= kyHalf && r < rows-kyHalf
		for c := 0; c < cols; c++ {
			if !interiorRow || c < kxHalf || c >= cols-kxHalf {
				dstData[r*cols+c] = border(r, c)
				continue
			}
			// Interior: no bounds check needed
			var sum float32
			for ky := 0; ky < kRows; ky++ {
				base := (r+ky-kyHalf)*cols + c - kxHalf
				kOff := ky * kCols
				for kx := 0; kx < kCols; kx++ {
					sum += srcData[base+kx] * k[kOff+kx]
				}
			}
			dstData[r*cols+c] = sum
		}
	}
}

// rotate90CCW rotates interleaved 3-channel 8-bit pixels a quarter turn
// counterclockwise. The result has the height and width swapped.
func rotate90CCW(pix []uint8, height, width int) ([]uint8, error) {
	out := make([]uint8, len(pix))
	// out[i][j] = in[j][width-1-i], out is width x height
	for i := 0; i < width; i++ {
		srcCol := width - 1 - i
		for j := 0; j < height; j++ {
			s := (j*width + srcCol) * 3
			d := (i*height + j) * 3
			out[d], out[d+1], out[d+2] = pix[s], pix[s+1], pix[s+2]
		}
	}
	return out, nil
}
