package anon

// VisualizationConfig returns an opaque kepler.gl-compatible map layer
// configuration for a debug provenance table: one hex layer colored by
// center precision, plus filters on the id-safe/loc-safe/unsafe flags and
// the time column. Callers serialize this directly to JSON and hand it to
// a kepler.gl map component; nothing in this package interprets it.
func VisualizationConfig() map[string]interface{} {
	return map[string]interface{}{
		"version": "v1",
		"config": map[string]interface{}{
			"visState": map[string]interface{}{
				"filters": []map[string]interface{}{
					{"name": []string{"time"}, "type": "timeRange"},
					{"name": []string{"center_p"}, "type": "range"},
					{"name": []string{"id_safe"}, "type": "select"},
					{"name": []string{"loc_safe"}, "type": "select"},
					{"name": []string{"unsafe"}, "type": "select"},
				},
				"layers": []map[string]interface{}{
					{
						"type": "hexagon",
						"config": map[string]interface{}{
							"dataId":       "debug_rows",
							"label":        "anonymized location",
							"columns":      map[string]string{"lat": "lat2", "lng": "lon2"},
							"colorField":   map[string]string{"name": "center_p", "type": "integer"},
							"colorScale":   "quantile",
							"visConfig":    map[string]interface{}{"opacity": 0.8, "worldUnitSize": 1},
						},
					},
				},
			},
		},
	}
}
