package checkinservice

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	chartBackground = drawing.ColorFromHex("0f172a")
	chartLine       = drawing.ColorFromHex("38bdf8")
	chartDot        = drawing.ColorFromHex("facc15")
	chartText       = drawing.ColorFromHex("e2e8f0")
)

// ArrivalsChart renders cumulative check-ins over time for a tournament as PNG.
func (s *CheckInService) ArrivalsChart(ctx context.Context, tournamentID string) ([]byte, error) {
	records, err := s.store.ListRecords(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return RenderArrivalsChart(records, s.clock.Now())
}

// RenderArrivalsChart draws the cumulative arrival curve. The curve starts at
// zero one minute before the first arrival; with no arrivals it is a flat line
// over the hour before now.
func RenderArrivalsChart(records []checkindomain.CheckInRecord, now time.Time) ([]byte, error) {
	times := make([]time.Time, 0, len(records))
	for _, r := range records {
		times = append(times, r.CheckInTime)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var xValues []time.Time
	var yValues []float64
	if len(times) == 0 {
		xValues = []time.Time{now.Add(-time.Hour), now}
		yValues = []float64{0, 0}
	} else {
		xValues = append(xValues, times[0].Add(-time.Minute))
		yValues = append(yValues, 0)
		for i, at := range times {
			xValues = append(xValues, at)
			yValues = append(yValues, float64(i+1))
		}
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: chartBackground,
		},
		Canvas: chart.Style{
			FillColor: chartBackground,
		},
		XAxis: chart.XAxis{
			Name:           "Time",
			ValueFormatter: chart.TimeValueFormatterWithFormat("15:04"),
			Style: chart.Style{
				FontColor: chartText,
			},
		},
		YAxis: chart.YAxis{
			Name: "Checked in",
			Style: chart.Style{
				FontColor: chartText,
			},
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: max(float64(len(times)), 1),
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Arrivals",
				XValues: xValues,
				YValues: yValues,
				Style: chart.Style{
					StrokeColor: chartLine,
					StrokeWidth: 2,
					DotWidth:    3,
					DotColor:    chartDot,
				},
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render arrivals chart: %w", err)
	}
	return buffer.Bytes(), nil
}
