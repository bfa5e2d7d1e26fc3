// Package mapjson decodes a heightfield map's "map.json" descriptor:
// scale/elevation parameters, lighting and fog, and the grid of cell
// directory names the map is built from.
package mapjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/terrain-lod/internal/engine/terrain"
	"github.com/Faultbox/terrain-lod/internal/logger"
	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

// ErrMissingField is returned (wrapped with the field name) when a
// required map.json field is absent.
var ErrMissingField = errors.New("mapjson: missing required field")

// ErrInvalidField is returned (wrapped with the field name) when a
// field is present but has the wrong type or an out-of-range value.
var ErrInvalidField = errors.New("mapjson: invalid field")

// document mirrors map.json's shape for decoding; fields are pointers
// where presence must be distinguished from the zero value.
type document struct {
	Name string `json:"name"`

	HScale *float32 `json:"h-scale"`
	VScale *float32 `json:"v-scale"`

	BaseElev *float32 `json:"base-elev"`
	MinElev  *float32 `json:"min-elev"`
	MaxElev  *float32 `json:"max-elev"`
	MinSky   *float32 `json:"min-sky"`
	MaxSky   *float32 `json:"max-sky"`

	Width    *uint32 `json:"width"`
	Height   *uint32 `json:"height"`
	CellSize *uint32 `json:"cell-size"`

	HasColorMap  *bool `json:"color-map"`
	HasNormalMap *bool `json:"normal-map"`
	HasWaterMap  *bool `json:"water-map"`

	SunDir       *[3]float32 `json:"sun-dir"`
	SunIntensity *[3]float32 `json:"sun-intensity"`
	Ambient      *[3]float32 `json:"ambient"`

	FogColor   *[3]float32 `json:"fog-color"`
	FogDensity *float32    `json:"fog-density"`

	Grid []string `json:"grid"`
}

// Load reads and validates the map.json file at path, returning a
// *terrain.Map with its grid dimensions set but its cells empty — the
// caller loads each cell's mesh/texture data separately (see
// internal/formats/hfcell) and installs it with Map.SetCell.
func Load(path string) (*terrain.Map, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a map.json document from r.
func Decode(r io.Reader) (*terrain.Map, []string, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("mapjson: parse: %w", err)
	}

	if doc.Name == "" {
		return nil, nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if doc.HScale == nil {
		return nil, nil, fmt.Errorf("%w: h-scale", ErrMissingField)
	}
	if doc.VScale == nil {
		return nil, nil, fmt.Errorf("%w: v-scale", ErrMissingField)
	}
	if doc.MinElev == nil {
		return nil, nil, fmt.Errorf("%w: min-elev", ErrMissingField)
	}
	if doc.MaxElev == nil {
		return nil, nil, fmt.Errorf("%w: max-elev", ErrMissingField)
	}
	if doc.MinSky == nil {
		return nil, nil, fmt.Errorf("%w: min-sky", ErrMissingField)
	}
	if doc.MaxSky == nil {
		return nil, nil, fmt.Errorf("%w: max-sky", ErrMissingField)
	}
	if doc.Width == nil || *doc.Width < 1 {
		return nil, nil, fmt.Errorf("%w: width", ErrInvalidField)
	}
	if doc.Height == nil || *doc.Height < 1 {
		return nil, nil, fmt.Errorf("%w: height", ErrInvalidField)
	}
	if doc.CellSize == nil || !isPowerOfTwoInRange(*doc.CellSize, terrain.MinCellSize, terrain.MaxCellSize) {
		return nil, nil, fmt.Errorf("%w: cell-size", ErrInvalidField)
	}
	if doc.FogColor != nil && doc.FogDensity == nil {
		return nil, nil, fmt.Errorf("%w: fog-density required when fog-color is present", ErrMissingField)
	}

	nRows := *doc.Height / *doc.CellSize
	nCols := *doc.Width / *doc.CellSize
	if nRows*(*doc.CellSize) != *doc.Height {
		return nil, nil, fmt.Errorf("%w: height must be a multiple of cell-size", ErrInvalidField)
	}
	if nCols*(*doc.CellSize) != *doc.Width {
		return nil, nil, fmt.Errorf("%w: width must be a multiple of cell-size", ErrInvalidField)
	}
	if len(doc.Grid) != int(nRows*nCols) {
		return nil, nil, fmt.Errorf("%w: grid has %d entries, expected %d", ErrInvalidField, len(doc.Grid), nRows*nCols)
	}

	m := terrain.NewMap(nRows, nCols)
	m.Name = doc.Name
	m.HScale = *doc.HScale
	m.VScale = *doc.VScale
	m.MinElev = *doc.MinElev
	m.MaxElev = *doc.MaxElev
	m.MinSky = *doc.MinSky
	m.MaxSky = *doc.MaxSky
	m.Width = *doc.Width
	m.Height = *doc.Height
	m.CellSize = *doc.CellSize

	if doc.BaseElev != nil {
		m.BaseElev = *doc.BaseElev
	}
	if doc.HasColorMap != nil {
		m.HasColorMap = *doc.HasColorMap
	}
	if doc.HasNormalMap != nil {
		m.HasNormalMap = *doc.HasNormalMap
	}
	if doc.HasWaterMap != nil {
		m.HasWaterMap = *doc.HasWaterMap
	}
	if doc.SunDir != nil {
		d := vecmath.Vec3{X: doc.SunDir[0], Y: doc.SunDir[1], Z: doc.SunDir[2]}
		m.SunDirection = d.Normalize()
	} else {
		m.SunDirection = vecmath.Vec3{X: 0, Y: 1, Z: 0}
	}
	if doc.SunIntensity != nil {
		m.SunIntensity = *doc.SunIntensity
	} else {
		m.SunIntensity = [3]float32{0.9, 0.9, 0.9}
	}
	if doc.Ambient != nil {
		m.AmbientLight = *doc.Ambient
	} else {
		m.AmbientLight = [3]float32{0.1, 0.1, 0.1}
	}
	if doc.FogColor != nil {
		m.HasFog = true
		m.FogColor = *doc.FogColor
		m.FogDensity = *doc.FogDensity
	}

	logger.Info("map loaded",
		zap.String("name", m.Name),
		zap.Uint32("rows", nRows),
		zap.Uint32("cols", nCols),
		zap.Uint32("cell-size", m.CellSize),
	)

	return m, doc.Grid, nil
}

func isPowerOfTwoInRange(v, lo, hi uint32) bool {
	if v < lo || v > hi {
		return false
	}
	return bits.OnesCount32(v) == 1
}
