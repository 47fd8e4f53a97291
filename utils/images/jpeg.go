package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/jpeg"
)

// DpiType is JFIF density unit.
type DpiType uint8

const (
	DpiNoUnits DpiType = iota
	DpiPxPerInch
	DpiPxPerSm
)

// ensureJFIF inserts JFIF APP0 segment with requested density right after
// SOI marker unless segment is already there.
func ensureJFIF(data []byte, unit DpiType, xdensity, ydensity uint16) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, errors.New("not a jpeg")
	}
	if data[2] == 0xFF && data[3] == 0xE0 {
		return data, nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(data)+18))
	buf.Write(data[:2])
	buf.Write([]byte{0xFF, 0xE0})
	_ = binary.Write(buf, binary.BigEndian, uint16(16))
	buf.Write([]byte{'J', 'F', 'I', 'F', 0x00, 0x01, 0x02})
	buf.WriteByte(byte(unit))
	_ = binary.Write(buf, binary.BigEndian, xdensity)
	_ = binary.Write(buf, binary.BigEndian, ydensity)
	// no embedded thumbnail
	buf.Write([]byte{0x00, 0x00})
	buf.Write(data[2:])
	return buf.Bytes(), nil
}

// EncodeJPEG encodes img and stamps it with dpi pixels per inch.
func EncodeJPEG(img image.Image, quality int, dpi uint16) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return ensureJFIF(buf.Bytes(), DpiPxPerInch, dpi, dpi)
}
