package anon

import "testing"

func TestVisualizationConfigHasExpectedFilters(t *testing.T) {
	cfg := VisualizationConfig()
	visState, ok := cfg["config"].(map[string]interface{})["visState"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected config.visState to be present")
	}
	filters, ok := visState["filters"].([]map[string]interface{})
	if !ok || len(filters) != 5 {
		t.Fatalf("expected 5 filters, got %v", filters)
	}
}
