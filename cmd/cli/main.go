// Command hexanon anonymizes CSV tables of (id, lat, lon, time) rows by
// descending a hierarchical hex grid until every surviving cluster
// represents at least K distinct entities.
package main

import "github.com/perf-analysis/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
