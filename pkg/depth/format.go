package depth

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// File layout: "HAYD" magic, uint32 width, uint32 height, then width*height
// float32 samples, all little-endian, rows top to bottom.
const (
	magic = "HAYD"

	// samples are read in chunks so a short file fails before a forged
	// header's full size is allocated
	readChunk = 1 << 16
)

// ErrBadFormat is returned when a depth file can't be parsed
var ErrBadFormat = errors.New("depth: bad file format")

// Read decodes a depth map from r
func Read(r io.Reader) (*Map, error) {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: read magic: %v", ErrBadFormat, err)
	}
	if string(header) != magic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadFormat, header)
	}

	var dims [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return nil, fmt.Errorf("%w: read dimensions: %v", ErrBadFormat, err)
	}
	width, height := int(dims[0]), int(dims[1])
	if err := checkDimensions(width, height); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}

	n := width * height
	data := make([]float32, 0, min(n, readChunk))
	buf := make([]float32, min(n, readChunk))
	for len(data) < n {
		chunk := buf[:min(readChunk, n-len(data))]
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, fmt.Errorf("%w: read samples: %v", ErrBadFormat, err)
		}
		data = append(data, chunk...)
	}
	return NewMap(width, height, data)
}

// Write encodes m to w
func Write(w io.Writer, m *Map) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	dims := [2]uint32{uint32(m.width), uint32(m.height)}
	if err := binary.Write(w, binary.LittleEndian, dims); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.data)
}

// Load reads a depth file; paths ending in .gz are gunzipped
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
		}
		defer gz.Close()
		r = gz
	}

	m, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// Save writes m to path; paths ending in .gz are gzipped
func Save(path string, m *Map) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if filepath.Ext(path) == ".gz" {
		gz := gzip.NewWriter(bw)
		if err := Write(gz, m); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return err
		}
	} else if err := Write(bw, m); err != nil {
		return err
	}
	return bw.Flush()
}

// EncodeSamples packs samples as little-endian float32 bytes
func EncodeSamples(m *Map) []byte {
	buf := make([]byte, 4*len(m.data))
	for i, v := range m.data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// DecodeSamples builds a map from little-endian float32 bytes
func DecodeSamples(width, height int, raw []byte) (*Map, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of samples", ErrBadFormat, len(raw))
	}
	data := make([]float32, len(raw)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return NewMap(width, height, data)
}
