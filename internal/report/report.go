// Package report renders the realized equity curve from the trade ledger to
// a standalone HTML page, optionally snapshotting it to PNG through headless
// chrome.
package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"riptide/internal/logger"
	"riptide/internal/store/tradelog"

	"github.com/chromedp/chromedp"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	chartWidthPx  = 1200
	chartHeightPx = 520

	colorBackground = "#060c1b"
	colorText       = "#eceff4"
	colorEquity     = "#34d399"
)

// Generator renders equity reports from the trade ledger.
type Generator struct {
	trades    *tradelog.Store
	outputDir string
	snapshot  bool
}

func NewGenerator(trades *tradelog.Store, outputDir string, snapshot bool) *Generator {
	if outputDir == "" {
		outputDir = "reports"
	}
	return &Generator{trades: trades, outputDir: outputDir, snapshot: snapshot}
}

// Generate writes the report files and returns the HTML path. With no closed
// trades it writes nothing and returns an empty path.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	points, err := g.trades.EquityPoints(ctx)
	if err != nil {
		return "", fmt.Errorf("report: load equity points: %w", err)
	}
	if len(points) == 0 {
		logger.Infof("report: no closed trades, skipping")
		return "", nil
	}
	html, err := buildEquityHTML(points)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", err
	}
	stamp := time.Now().UTC().Format("20060102_150405")
	htmlPath := filepath.Join(g.outputDir, fmt.Sprintf("equity_%s.html", stamp))
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return "", err
	}
	logger.Infof("report: wrote %s (%d trades)", htmlPath, len(points))

	if g.snapshot {
		png, err := renderHTMLToPNG(ctx, html, chartWidthPx, chartHeightPx+80)
		if err != nil {
			logger.Warnf("report: png snapshot failed, html kept: %v", err)
			return htmlPath, nil
		}
		pngPath := filepath.Join(g.outputDir, fmt.Sprintf("equity_%s.png", stamp))
		if err := os.WriteFile(pngPath, png, 0o644); err != nil {
			logger.Warnf("report: write png failed: %v", err)
		}
	}
	return htmlPath, nil
}

func buildEquityHTML(points []tradelog.EquityPoint) ([]byte, error) {
	xAxis := make([]string, len(points))
	data := make([]opts.LineData, len(points))
	var cumulative float64
	for i, p := range points {
		cumulative += p.PnL
		xAxis[i] = p.At.Format("01-02 15:04")
		data[i] = opts.LineData{Value: cumulative}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      "Realized Equity",
			Subtitle:   fmt.Sprintf("%d closed trades | net %.2f", len(points), cumulative),
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorText, FontSize: 18},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true), AxisLabel: &opts.AxisLabel{Color: colorText}}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Color: colorText}}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("equity", data,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderHTMLToPNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(parent, 20*time.Second)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1200 * time.Millisecond),
		chromedp.FullScreenshot(&screenshot, 0),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return screenshot, nil
}
