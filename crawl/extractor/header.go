package extractor

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var sampleSizes = map[string]int{
	"Byte":    1,
	"Int16":   2,
	"UInt16":  2,
	"Float32": 4,
}

var dataExtensions = []string{".flt", ".bil", ".bsq", ".bin"}

// ExtractGridHeader parses an ESRI BIL/FLT header sidecar. Lower-left
// corner or center coordinates are normalized to the upper-left corner.
// DataType is left empty when the header declares neither NBITS nor
// PIXELTYPE; the caller defaults it from the data file extension.
func ExtractGridHeader(path string) (*GridInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fields := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		fields[strings.ToUpper(parts[0])] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}

	info := &GridInfo{}
	if info.NCols, err = intField(path, fields, "NCOLS"); err != nil {
		return nil, err
	}
	if info.NRows, err = intField(path, fields, "NROWS"); err != nil {
		return nil, err
	}

	if _, ok := fields["CELLSIZE"]; ok {
		cellSize, err := floatField(path, fields, "CELLSIZE")
		if err != nil {
			return nil, err
		}
		info.CellSizeX, info.CellSizeY = cellSize, cellSize
	} else {
		if info.CellSizeX, err = floatField(path, fields, "XDIM"); err != nil {
			return nil, err
		}
		if info.CellSizeY, err = floatField(path, fields, "YDIM"); err != nil {
			return nil, err
		}
	}

	// XLLCORNER/YLLCORNER address the lower-left cell corner,
	// XLLCENTER/YLLCENTER its center.
	if _, ok := fields["XLLCORNER"]; ok {
		xll, err := floatField(path, fields, "XLLCORNER")
		if err != nil {
			return nil, err
		}
		yll, err := floatField(path, fields, "YLLCORNER")
		if err != nil {
			return nil, err
		}
		info.OriginX = xll
		info.OriginY = yll + float64(info.NRows)*info.CellSizeY
	} else {
		xll, err := floatField(path, fields, "XLLCENTER")
		if err != nil {
			return nil, err
		}
		yll, err := floatField(path, fields, "YLLCENTER")
		if err != nil {
			return nil, err
		}
		info.OriginX = xll - info.CellSizeX/2
		info.OriginY = yll - info.CellSizeY/2 + float64(info.NRows)*info.CellSizeY
	}

	if order, ok := fields["BYTEORDER"]; ok {
		order = strings.ToUpper(order)
		if order != "I" && order != "LSBFIRST" {
			return nil, fmt.Errorf("%s: byte order %s is not supported, grids are little-endian", path, order)
		}
	}

	nodataRaw, hasNodata := fields["NODATA_VALUE"]
	if !hasNodata {
		nodataRaw, hasNodata = fields["NODATA"]
	}
	if hasNodata {
		val, err := strconv.ParseFloat(nodataRaw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid NODATA_VALUE: %v", path, err)
		}
		info.NoData = &val
	}

	info.DataType, err = sampleType(path, fields)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func intField(path string, fields map[string]string, key string) (int, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%s: missing %s", path, key)
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid %s: %v", path, key, err)
	}
	return val, nil
}

func floatField(path string, fields map[string]string, key string) (float64, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%s: missing %s", path, key)
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid %s: %v", path, key, err)
	}
	return val, nil
}

func sampleType(path string, fields map[string]string) (string, error) {
	pixelType := strings.ToUpper(fields["PIXELTYPE"])
	nBitsRaw, hasNBits := fields["NBITS"]
	if !hasNBits && len(pixelType) == 0 {
		return "", nil
	}

	if pixelType == "FLOAT" {
		if hasNBits && nBitsRaw != "32" {
			return "", fmt.Errorf("%s: FLOAT grids must have NBITS 32, got %s", path, nBitsRaw)
		}
		return "Float32", nil
	}
	if !hasNBits {
		return "", fmt.Errorf("%s: PIXELTYPE %s requires NBITS", path, pixelType)
	}

	nBits, err := strconv.Atoi(nBitsRaw)
	if err != nil {
		return "", fmt.Errorf("%s: invalid NBITS: %v", path, err)
	}
	switch nBits {
	case 8:
		if pixelType == "SIGNEDINT" {
			return "", fmt.Errorf("%s: signed 8 bit grids are not supported", path)
		}
		return "Byte", nil
	case 16:
		if pixelType == "SIGNEDINT" {
			return "Int16", nil
		}
		return "UInt16", nil
	default:
		return "", fmt.Errorf("%s: unsupported sample layout NBITS %d PIXELTYPE %s", path, nBits, pixelType)
	}
}

// ExtractLayerFile resolves one header sidecar into a catalog layer: the
// parsed grid plus the flat binary file sharing its base name. The data
// file size must agree with the header.
func ExtractLayerFile(hdrPath string) (*LayerFile, error) {
	info, err := ExtractGridHeader(hdrPath)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(hdrPath, filepath.Ext(hdrPath))
	var dataPath string
	for _, ext := range dataExtensions {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			dataPath = candidate
			break
		}
	}
	if len(dataPath) == 0 {
		return nil, fmt.Errorf("%s: no grid file found with extensions %v", hdrPath, dataExtensions)
	}

	if len(info.DataType) == 0 {
		// ESRI defaults: .flt grids are 32 bit floats, BIL grids 8 bit.
		if strings.EqualFold(filepath.Ext(dataPath), ".flt") {
			info.DataType = "Float32"
		} else {
			info.DataType = "Byte"
		}
	}

	fStat, err := os.Stat(dataPath)
	if err != nil {
		return nil, err
	}
	want := int64(info.NCols) * int64(info.NRows) * int64(sampleSizes[info.DataType])
	if fStat.Size() != want {
		return nil, fmt.Errorf("%s holds %d bytes, expecting %d for %dx%d %s", dataPath, fStat.Size(), want, info.NCols, info.NRows, info.DataType)
	}

	return &LayerFile{
		Name:       filepath.Base(base),
		HeaderPath: hdrPath,
		DataPath:   dataPath,
		Grid:       info,
	}, nil
}
