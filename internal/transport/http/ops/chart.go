package opshttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// handleBenchmarkChart 把基准历史渲染为折线图页面，便于肉眼巡检趋势。
func (s *Server) handleBenchmarkChart(c *gin.Context) {
	results := s.harness.GetBenchmarkHistory(0)
	if len(results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "暂无基准结果"})
		return
	}

	xAxis := make([]string, 0, len(results))
	sharpe := make([]opts.LineData, 0, len(results))
	sortino := make([]opts.LineData, 0, len(results))
	winRate := make([]opts.LineData, 0, len(results))
	drawdown := make([]opts.LineData, 0, len(results))
	for _, r := range results {
		xAxis = append(xAxis, r.Timestamp.Format("01-02 15:04"))
		sharpe = append(sharpe, opts.LineData{Value: r.SharpeRatio})
		sortino = append(sortino, opts.LineData{Value: r.SortinoRatio})
		winRate = append(winRate, opts.LineData{Value: r.WinRate})
		drawdown = append(drawdown, opts.LineData{Value: r.MaxDrawdown})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  "1200px",
			Height: "600px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "基准回测历史"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("Sharpe", sharpe)
	line.AddSeries("Sortino", sortino)
	line.AddSeries("WinRate", winRate)
	line.AddSeries("MaxDrawdown", drawdown)

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
