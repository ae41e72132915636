package spatial

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// ErrUnsupportedCRS is returned for layers in a projection we cannot invert
var ErrUnsupportedCRS = errors.New("unsupported coordinate reference system")

// EPSG codes understood by Reproject
const (
	EPSGWGS84       = 4326
	EPSGWebMercator = 3857
	epsgGoogle      = 900913
)

// ParseEPSG extracts an EPSG code from the common spellings: "EPSG:3857",
// "urn:ogc:def:crs:EPSG::4326", "urn:ogc:def:crs:OGC:1.3:CRS84" or a bare
// number.
func ParseEPSG(crs string) (int, error) {
	s := strings.TrimSpace(strings.ToUpper(crs))
	if s == "" || strings.HasSuffix(s, "CRS84") {
		return EPSGWGS84, nil
	}

	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCRS, crs)
	}
	return code, nil
}

// Reproject converts geometries in the given EPSG code to WGS84 lon/lat
// degrees. It runs once per layer at load time.
func Reproject(geometries []orb.Geometry, epsg int) ([]orb.Geometry, error) {
	switch epsg {
	case EPSGWGS84:
		return geometries, nil
	case EPSGWebMercator, epsgGoogle:
		out := make([]orb.Geometry, len(geometries))
		for i, g := range geometries {
			if g == nil {
				continue
			}
			out[i] = project.Geometry(orb.Clone(g), project.Mercator.ToWGS84)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: EPSG:%d", ErrUnsupportedCRS, epsg)
	}
}
