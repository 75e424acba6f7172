// Command chart-worker pulls the fixed report figures out of one cashflow
// planning document and writes them into the shared asset directory.
//
// Usage: chart-worker <document> <asset-dir>. The JSON result goes to
// stdout and advisory CHART tags to stderr. Every failure degrades to a
// charts_extracted:false result with a zero exit; partial writes are left
// in place.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/clearviewfp/report-engine/internal/assets"
	"github.com/clearviewfp/report-engine/internal/charts"
	"github.com/clearviewfp/report-engine/internal/domain"
	"github.com/clearviewfp/report-engine/internal/worker"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: chart-worker <document> <asset-dir>")
		emit(worker.EmptyChartResult())
		return
	}
	docPath, assetDir := os.Args[1], os.Args[2]

	ext, err := charts.ExtractDocument(docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract %s: %v\n", docPath, err)
		emit(worker.EmptyChartResult())
		return
	}

	store := assets.NewStore(assetDir)
	res := worker.ChartResult{ClientName: ext.ClientName}
	written := make(map[domain.ChartRole]bool)
	for _, asset := range ext.Assets {
		name, err := store.WriteRole(asset.Role, asset.Bytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", asset.Role, err)
			continue
		}
		written[asset.Role] = true
		fmt.Fprintf(os.Stderr, "%s%s\n", worker.TagChart, name)
		res.Charts = append(res.Charts, worker.ChartFile{
			Ordinal: asset.Ordinal,
			Role:    string(asset.Role),
			File:    name,
		})
	}

	// Success is binary: both chart slots on disk or nothing to claim.
	res.ChartsExtracted = written[domain.ChartRoleMoneyInVsOut] &&
		written[domain.ChartRoleSavingsProjection]

	emit(res)
}

func emit(res worker.ChartResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
	}
}
