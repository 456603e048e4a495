package models

// ChartSeries represents one data series of a chart.
type ChartSeries struct {
	// Name is the series display name.
	Name string `json:"name"`
	// NameRange is the reference the name is read from, e.g. "Sheet1!$B$1".
	NameRange string `json:"name_range,omitempty"`
	// XRange is the category (X axis) reference.
	XRange string `json:"x_range,omitempty"`
	// YRange is the value (Y axis) reference.
	YRange string `json:"y_range,omitempty"`
}

// Chart represents an embedded chart.
type Chart struct {
	// Name is the chart frame name.
	Name string `json:"name"`
	// ChartType is the plot type, e.g. "Bar" or "Line". Combination charts
	// report the first plot.
	ChartType string `json:"chart_type"`
	// Title is the chart title.
	Title string `json:"title,omitempty"`
	// YAxisTitle is the value axis title.
	YAxisTitle string `json:"y_axis_title,omitempty"`
	// YAxisRange is the value axis [min, max] when both are fixed.
	YAxisRange []float64 `json:"y_axis_range,omitempty"`
	// Series lists the data series in plot order.
	Series []ChartSeries `json:"series"`
	// Anchor is the cell range the chart frame covers.
	Anchor *Range `json:"anchor,omitempty"`
	// L is the left offset in pixels.
	L int `json:"l"`
	// T is the top offset in pixels.
	T int `json:"t"`
	// W is the width in pixels (verbose mode only).
	W *int `json:"w,omitempty"`
	// H is the height in pixels (verbose mode only).
	H *int `json:"h,omitempty"`
}
