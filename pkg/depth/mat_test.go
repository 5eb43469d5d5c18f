package depth

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestFromMat(t *testing.T) {
	mat := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV32FC1)
	defer mat.Close()
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			mat.SetFloatAt(row, col, float32(row*10+col))
		}
	}

	m, err := FromMat(mat)
	if err != nil {
		t.Fatalf("FromMat: %v", err)
	}
	if m.Width() != 3 || m.Height() != 2 {
		t.Fatalf("size = %dx%d, want 3x2", m.Width(), m.Height())
	}
	v, err := m.At(2, 1)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if v != 12 {
		t.Errorf("At(2,1) = %v, want 12", v)
	}
}

func TestFromMat_Rejects(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := FromMat(empty); !errors.Is(err, ErrBadDimensions) {
		t.Errorf("empty mat: err = %v, want ErrBadDimensions", err)
	}

	u8 := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC1)
	defer u8.Close()
	if _, err := FromMat(u8); !errors.Is(err, ErrBadFormat) {
		t.Errorf("8-bit mat: err = %v, want ErrBadFormat", err)
	}
}

func TestLoadImage_Missing(t *testing.T) {
	if _, err := LoadImage(t.TempDir()+"/missing.png", 0.001); !errors.Is(err, ErrBadFormat) {
		t.Errorf("err = %v, want ErrBadFormat", err)
	}
}
