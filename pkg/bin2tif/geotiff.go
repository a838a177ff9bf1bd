package bin2tif

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// RasterWriter persists a color frame georeferenced to bbox.
type RasterWriter interface {
	Write(img ColorFrame, bbox BoundingBox, path string) error
}

// TIFF field types.
const (
	dtASCII  = 2
	dtShort  = 3
	dtLong   = 4
	dtDouble = 12
)

// Baseline and GeoTIFF tags.
const (
	tImageWidth      = 256
	tImageLength     = 257
	tBitsPerSample   = 258
	tCompression     = 259
	tPhotometric     = 262
	tStripOffsets    = 273
	tSamplesPerPixel = 277
	tRowsPerStrip    = 278
	tStripByteCounts = 279
	tPlanarConfig    = 284
	tSoftware        = 305
	tModelPixelScale = 33550
	tModelTiepoint   = 33922
	tGeoKeyDirectory = 34735

	cNone    = 1
	cDeflate = 8

	pRGB = 2
)

// GeoKey IDs and values.
const (
	keyGTModelType    = 1024
	keyGTRasterType   = 1025
	keyGeographicType = 2048

	geoModelGeographic   = 2
	geoRasterPixelIsArea = 1
	epsgWGS84            = 4326
)

// stripTarget is the approximate uncompressed size of one strip.
const stripTarget = 64 << 10

// GeoTIFFWriter encodes chunky 8-bit RGB GeoTIFFs in EPSG:4326. The raster
// origin is the north-west corner of the bounding box and pixels are
// (East-West)/Width by (North-South)/Height degrees.
type GeoTIFFWriter struct {
	Compress bool
	Software string
}

// Write encodes img to path. The file is written beside path under a
// temporary name and renamed into place only once complete.
func (w GeoTIFFWriter) Write(img ColorFrame, bbox BoundingBox, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bin2tif-*.tif")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}

	if err := w.Encode(tmp, img, bbox); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

type ifdEntry struct {
	tag    uint16
	typ    uint16
	count  uint32
	data   []byte
	offset uint32
}

func shortEntry(tag uint16, vals ...uint16) ifdEntry {
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	return ifdEntry{tag: tag, typ: dtShort, count: uint32(len(vals)), data: data}
}

func longEntry(tag uint16, vals ...uint32) ifdEntry {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	return ifdEntry{tag: tag, typ: dtLong, count: uint32(len(vals)), data: data}
}

func doubleEntry(tag uint16, vals ...float64) ifdEntry {
	data := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
	}
	return ifdEntry{tag: tag, typ: dtDouble, count: uint32(len(vals)), data: data}
}

func asciiEntry(tag uint16, s string) ifdEntry {
	data := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: dtASCII, count: uint32(len(data)), data: data}
}

// GeoTransform returns the GDAL-style affine for img placed on bbox:
// origin x, pixel width, row rotation, origin y, column rotation, pixel height.
func GeoTransform(bbox BoundingBox, width, height int) [6]float64 {
	return [6]float64{
		bbox.West,
		(bbox.East - bbox.West) / float64(width),
		0,
		bbox.North,
		0,
		(bbox.South - bbox.North) / float64(height),
	}
}

// Encode writes img as a single-image little-endian GeoTIFF.
func (w GeoTIFFWriter) Encode(out io.Writer, img ColorFrame, bbox BoundingBox) error {
	if img.Width <= 0 || img.Height <= 0 {
		return errors.Errorf("cannot encode empty %dx%d image", img.Width, img.Height)
	}

	strips, rowsPerStrip, err := w.encodeStrips(img)
	if err != nil {
		return errors.Wrap(err, "compressing strips")
	}

	compression := uint16(cNone)
	if w.Compress {
		compression = cDeflate
	}

	stripOffsets := longEntry(tStripOffsets, make([]uint32, len(strips))...)
	byteCounts := make([]uint32, len(strips))
	for i, s := range strips {
		byteCounts[i] = uint32(len(s))
	}

	gt := GeoTransform(bbox, img.Width, img.Height)
	entries := []ifdEntry{
		longEntry(tImageWidth, uint32(img.Width)),
		longEntry(tImageLength, uint32(img.Height)),
		shortEntry(tBitsPerSample, 8, 8, 8),
		shortEntry(tCompression, compression),
		shortEntry(tPhotometric, pRGB),
		stripOffsets,
		shortEntry(tSamplesPerPixel, 3),
		longEntry(tRowsPerStrip, uint32(rowsPerStrip)),
		longEntry(tStripByteCounts, byteCounts...),
		shortEntry(tPlanarConfig, 1),
		doubleEntry(tModelPixelScale, gt[1], -gt[5], 0),
		doubleEntry(tModelTiepoint, 0, 0, 0, gt[0], gt[3], 0),
		shortEntry(tGeoKeyDirectory,
			1, 1, 0, 3,
			keyGTModelType, 0, 1, geoModelGeographic,
			keyGTRasterType, 0, 1, geoRasterPixelIsArea,
			keyGeographicType, 0, 1, epsgWGS84,
		),
	}
	if w.Software != "" {
		entries = append(entries, asciiEntry(tSoftware, w.Software))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	// Layout: header, IFD, out-of-line values, strips.
	const headerSize = 8
	next := uint32(headerSize + 2 + 12*len(entries) + 4)
	for i := range entries {
		if len(entries[i].data) > 4 {
			entries[i].offset = next
			next += uint32(len(entries[i].data))
			next += next & 1
		}
	}
	for i := range strips {
		binary.LittleEndian.PutUint32(stripOffsets.data[4*i:], next)
		next += byteCounts[i]
	}

	bw := bufio.NewWriter(out)
	le := binary.LittleEndian
	var buf [12]byte

	bw.WriteString("II")
	le.PutUint16(buf[:2], 42)
	le.PutUint32(buf[2:6], headerSize)
	bw.Write(buf[:6])

	le.PutUint16(buf[:2], uint16(len(entries)))
	bw.Write(buf[:2])
	for _, e := range entries {
		buf = [12]byte{}
		le.PutUint16(buf[0:], e.tag)
		le.PutUint16(buf[2:], e.typ)
		le.PutUint32(buf[4:], e.count)
		if len(e.data) > 4 {
			le.PutUint32(buf[8:], e.offset)
		} else {
			copy(buf[8:], e.data)
		}
		bw.Write(buf[:])
	}
	le.PutUint32(buf[:4], 0)
	bw.Write(buf[:4])

	for _, e := range entries {
		if len(e.data) > 4 {
			bw.Write(e.data)
			if len(e.data)&1 == 1 {
				bw.WriteByte(0)
			}
		}
	}
	for _, s := range strips {
		bw.Write(s)
	}
	return bw.Flush()
}

func (w GeoTIFFWriter) encodeStrips(img ColorFrame) ([][]byte, int, error) {
	rowBytes := img.Width * 3
	rowsPerStrip := stripTarget / rowBytes
	if rowsPerStrip < 1 {
		rowsPerStrip = 1
	}
	if rowsPerStrip > img.Height {
		rowsPerStrip = img.Height
	}

	var strips [][]byte
	for y := 0; y < img.Height; y += rowsPerStrip {
		end := y + rowsPerStrip
		if end > img.Height {
			end = img.Height
		}
		raw := img.Pix[y*rowBytes : end*rowBytes]
		if !w.Compress {
			strips = append(strips, raw)
			continue
		}
		var b bytes.Buffer
		zw, err := zlib.NewWriterLevel(&b, zlib.DefaultCompression)
		if err != nil {
			return nil, 0, err
		}
		if _, err := zw.Write(raw); err != nil {
			return nil, 0, err
		}
		if err := zw.Close(); err != nil {
			return nil, 0, err
		}
		strips = append(strips, b.Bytes())
	}
	return strips, rowsPerStrip, nil
}
