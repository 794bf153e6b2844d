package catalog

import (
	"fmt"
	"io/ioutil"
	"math"
	"path/filepath"
	"reflect"
	"unsafe"

	"github.com/forestwatch/fcs/raster"
)

const SizeofInt16 = 2
const SizeofUint16 = 2
const SizeofFloat32 = 4

var sampleSizes = map[string]int{
	"Byte":    1,
	"Int16":   SizeofInt16,
	"UInt16":  SizeofUint16,
	"Float32": SizeofFloat32,
}

// loadGridFile decodes one flat binary grid file: row-major samples of the
// declared data type, upper-left sample first. Samples equal to the
// declared nodata value come out undefined, as do Float32 NaNs.
func (s *Store) loadGridFile(def *LayerDef) (*raster.Raster, error) {
	path := def.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	rawData, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error trying to read %s file: %v", path, err)
	}

	size := s.grid.Size()
	if len(rawData) != size*sampleSizes[def.Data_type] {
		return nil, fmt.Errorf("layer %s: %s holds %d bytes, expecting %d", def.Name, path, len(rawData), size*sampleSizes[def.Data_type])
	}

	data := make([]float64, size)
	valid := make([]bool, size)
	hasNodata := def.No_data != nil

	switch def.Data_type {
	case "Byte":
		nodata := uint8(0)
		if hasNodata {
			nodata = uint8(*def.No_data)
		}
		for i, val := range rawData {
			if hasNodata && val == nodata {
				continue
			}
			data[i] = float64(val)
			valid[i] = true
		}
	case "Int16":
		header := *(*reflect.SliceHeader)(unsafe.Pointer(&rawData))
		header.Len /= SizeofInt16
		header.Cap /= SizeofInt16
		samples := *(*[]int16)(unsafe.Pointer(&header))
		nodata := int16(0)
		if hasNodata {
			nodata = int16(*def.No_data)
		}
		for i, val := range samples {
			if hasNodata && val == nodata {
				continue
			}
			data[i] = float64(val)
			valid[i] = true
		}
	case "UInt16":
		header := *(*reflect.SliceHeader)(unsafe.Pointer(&rawData))
		header.Len /= SizeofUint16
		header.Cap /= SizeofUint16
		samples := *(*[]uint16)(unsafe.Pointer(&header))
		nodata := uint16(0)
		if hasNodata {
			nodata = uint16(*def.No_data)
		}
		for i, val := range samples {
			if hasNodata && val == nodata {
				continue
			}
			data[i] = float64(val)
			valid[i] = true
		}
	case "Float32":
		header := *(*reflect.SliceHeader)(unsafe.Pointer(&rawData))
		header.Len /= SizeofFloat32
		header.Cap /= SizeofFloat32
		samples := *(*[]float32)(unsafe.Pointer(&header))
		nodata := float32(0)
		if hasNodata {
			nodata = float32(*def.No_data)
		}
		for i, val := range samples {
			if math.IsNaN(float64(val)) {
				continue
			}
			if hasNodata && val == nodata {
				continue
			}
			data[i] = float64(val)
			valid[i] = true
		}
	default:
		return nil, fmt.Errorf("layer %s: unsupported data type %s", def.Name, def.Data_type)
	}

	return raster.FromPlane(s.grid, def.Name, data, valid)
}
