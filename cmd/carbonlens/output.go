package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spektr-org/carbonlens/engine"
)

// ============================================================================
// CSV OUTPUT: One view as Sheets-ready rows
// ============================================================================

// writeViewCSV writes one view. Chartable views go through their chart so
// headers match the axis labels; samples and scalars are written raw.
func writeViewCSV(w io.Writer, name engine.ViewName, snap *engine.Snapshot) error {
	cw := csv.NewWriter(w)

	if chart := engine.BuildChart(name, snap); chart != nil {
		writeChartCSV(cw, chart)
	} else {
		switch name {
		case engine.ViewKPIs:
			cw.Write([]string{"Metric", "Value", "Unit"})
			for _, l := range engine.BuildText(*snap.KPIs).Lines {
				cw.Write([]string{l.Label, fmtNum(l.RawValue), l.Unit})
			}
		case engine.ViewYearScatter, engine.ViewEnergyScatter:
			points, _ := snap.Get(name).([]engine.ScatterPoint)
			cw.Write([]string{"id", "x", "y", "z"})
			for _, p := range points {
				cw.Write([]string{p.ID, fmtNum(p.X), fmtNum(p.Y), fmtNum(p.Z)})
			}
		case engine.ViewHeatPoints:
			cw.Write([]string{"lat", "lon", "weight"})
			for _, p := range snap.HeatPoints {
				cw.Write([]string{fmtNum(p.Lat), fmtNum(p.Lon), fmtNum(p.Weight)})
			}
		case engine.ViewFacets:
			cw.Write([]string{"facet", "value"})
			for _, y := range snap.Facets.Years {
				cw.Write([]string{"year", strconv.Itoa(y)})
			}
			for _, t := range snap.Facets.PropertyTypes {
				cw.Write([]string{"propertyType", t})
			}
		default:
			// chartable view with no data
			cw.Write([]string{"Result", "No data"})
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeChartCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	xLabel := chart.XAxis
	yLabel := chart.YAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	if yLabel == "" {
		yLabel = "Value"
	}

	// Single series → two columns
	if len(chart.Series) == 1 {
		cw.Write([]string{xLabel, yLabel})
		for _, d := range chart.Series[0].Data {
			cw.Write([]string{d.Label, fmtNum(d.Value)})
		}
		return
	}

	// Multi-series → label + one column per series
	headers := []string{xLabel}
	for _, s := range chart.Series {
		headers = append(headers, s.Name)
	}
	cw.Write(headers)

	for i, d := range chart.Series[0].Data {
		row := []string{d.Label}
		for _, s := range chart.Series {
			if i < len(s.Data) {
				row = append(row, fmtNum(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		cw.Write(row)
	}
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		fatalf("Failed to marshal output: %v", err)
	}
	fmt.Fprintln(w, string(out))
}

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
