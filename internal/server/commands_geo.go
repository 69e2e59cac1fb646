package server

import (
	"strconv"
	"strings"

	"synnergy-kv/internal/resp"
)

func cmdGeoAdd(sess *Session, args []string) resp.Reply {
	key := args[0]
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return resp.Err("ERR value is not a valid float")
	}
	lat, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return resp.Err("ERR value is not a valid float")
	}
	member := args[3]
	if err := sess.srv.store.GeoAdd(key, lon, lat, member); err != nil {
		return resp.Errf("ERR %s", err.Error())
	}
	return resp.Int(1)
}

func cmdGeoPos(sess *Session, args []string) resp.Reply {
	members := args[1:]
	positions := sess.srv.store.GeoPos(args[0], members)
	items := make([]resp.Reply, len(positions))
	for i, p := range positions {
		if !p.OK {
			items[i] = resp.NilArray()
			continue
		}
		items[i] = resp.Array(
			resp.Bulk(strconv.FormatFloat(p.Lon, 'f', -1, 64)),
			resp.Bulk(strconv.FormatFloat(p.Lat, 'f', -1, 64)),
		)
	}
	return resp.ArraySlice(items)
}

func cmdGeoDist(sess *Session, args []string) resp.Reply {
	dist, ok := sess.srv.store.GeoDist(args[0], args[1], args[2])
	if !ok {
		return resp.NilBulk()
	}
	return resp.Bulk(strconv.FormatFloat(dist, 'f', -1, 64))
}

// geoUnitMeters converts a GEOSEARCH unit token to its
// meters-per-unit factor.
func geoUnitMeters(unit string) (float64, bool) {
	switch strings.ToLower(unit) {
	case "m":
		return 1, true
	case "km":
		return 1000, true
	case "mi":
		return 1609.34, true
	case "ft":
		return 0.3048, true
	default:
		return 0, false
	}
}

// cmdGeoSearch implements GEOSEARCH key FROMLONLAT lon lat BYRADIUS r unit.
func cmdGeoSearch(sess *Session, args []string) resp.Reply {
	key := args[0]
	if !strings.EqualFold(args[1], "FROMLONLAT") {
		return resp.Err("ERR syntax error")
	}
	lon, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return resp.Err("ERR value is not a valid float")
	}
	lat, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return resp.Err("ERR value is not a valid float")
	}
	if !strings.EqualFold(args[4], "BYRADIUS") {
		return resp.Err("ERR syntax error")
	}
	radius, err := strconv.ParseFloat(args[5], 64)
	if err != nil {
		return resp.Err("ERR value is not a valid float")
	}
	unitFactor := 1.0
	if len(args) >= 7 {
		f, ok := geoUnitMeters(args[6])
		if !ok {
			return resp.Err("ERR unsupported unit provided. please use M, KM, FT, MI")
		}
		unitFactor = f
	}
	results := sess.srv.store.GeoSearch(key, lon, lat, radius*unitFactor)
	items := make([]resp.Reply, len(results))
	for i, r := range results {
		items[i] = resp.Bulk(r.Member)
	}
	return resp.ArraySlice(items)
}
