package depth

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FromMat copies a single-channel CV_32F matrix into a depth map
func FromMat(mat gocv.Mat) (*Map, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("%w: empty mat", ErrBadDimensions)
	}
	if mat.Type() != gocv.MatTypeCV32FC1 {
		return nil, fmt.Errorf("%w: mat type %v, want CV_32FC1", ErrBadFormat, mat.Type())
	}

	rows, cols := mat.Rows(), mat.Cols()
	data := make([]float32, rows*cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			data[row*cols+col] = mat.GetFloatAt(row, col)
		}
	}
	return NewMap(cols, rows, data)
}

// LoadImage reads a 16-bit depth image (e.g. PNG in millimeters) and
// multiplies each sample by scale to get meters.
func LoadImage(path string, scale float64) (*Map, error) {
	img := gocv.IMRead(path, gocv.IMReadAnyDepth)
	if img.Empty() {
		return nil, fmt.Errorf("%w: could not read %s", ErrBadFormat, path)
	}
	defer img.Close()

	converted := gocv.NewMat()
	defer converted.Close()
	img.ConvertToWithParams(&converted, gocv.MatTypeCV32F, float32(scale), 0)

	return FromMat(converted)
}
