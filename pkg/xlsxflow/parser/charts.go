package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
)

// ChartTypeMap maps DrawingML plot elements to chart type names.
var ChartTypeMap = map[string]string{
	"lineChart":      "Line",
	"line3DChart":    "3DLine",
	"barChart":       "Bar",
	"bar3DChart":     "3DBar",
	"areaChart":      "Area",
	"area3DChart":    "3DArea",
	"pieChart":       "Pie",
	"pie3DChart":     "3DPie",
	"doughnutChart":  "Doughnut",
	"scatterChart":   "XYScatter",
	"bubbleChart":    "Bubble",
	"radarChart":     "Radar",
	"surfaceChart":   "Surface",
	"surface3DChart": "3DSurface",
	"stockChart":     "Stock",
	"ofPieChart":     "PieOfPie",
}

// chartsOf resolves the chart frames of a drawing to their chart parts.
func chartsOf(pkg *Package, drawingPart string, frames []chartFrame, g *Grid, verbose bool) ([]models.Chart, error) {
	if len(frames) == 0 {
		return nil, nil
	}
	rels, err := pkg.rels(drawingPart)
	if err != nil {
		return nil, err
	}

	var charts []models.Chart
	for _, fr := range frames {
		rel, ok := rels[fr.rID]
		if !ok || !strings.HasSuffix(rel.Type, relChart) {
			continue
		}
		data, err := pkg.Part(rel.Target)
		if err != nil {
			return charts, err
		}
		if data == nil {
			continue
		}
		c, err := parseChart(data)
		if err != nil {
			return charts, fmt.Errorf("%s: %w", rel.Target, err)
		}
		c.Name = fr.name
		l, t, w, h := bounds(fr.xfrm, fr.at, g)
		c.L, c.T = l, t
		c.Anchor = anchorRange(fr.at)
		if verbose {
			c.W, c.H = &w, &h
		}
		charts = append(charts, c)
	}
	return charts, nil
}

// parseChart reads the type, titles, value axis and series of a chart part.
// Combination charts report the type of their first plot and the series of
// every plot.
func parseChart(data []byte) (models.Chart, error) {
	c := models.Chart{ChartType: "unknown"}
	typed, valAxis := false, false
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return c, nil
		}
		if err != nil {
			return c, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch name := se.Name.Local; name {
		case "title":
			// Axis titles are consumed with their axis, so this is the chart title.
			if c.Title, err = readTitle(dec); err != nil {
				return c, err
			}
		case "valAx":
			if valAxis {
				// Secondary value axis.
				err = dec.Skip()
			} else {
				c.YAxisTitle, c.YAxisRange, err = readValueAxis(dec)
				valAxis = true
			}
			if err != nil {
				return c, err
			}
		case "catAx", "dateAx", "serAx":
			if err := dec.Skip(); err != nil {
				return c, err
			}
		case "barDir":
			if typed && c.ChartType == "Bar" && attr(se, "val") == "col" {
				c.ChartType = "Column"
			}
		case "ser":
			s, err := readSeries(dec)
			if err != nil {
				return c, err
			}
			c.Series = append(c.Series, s)
		default:
			if ct, ok := ChartTypeMap[name]; ok && !typed {
				c.ChartType, typed = ct, true
			}
		}
	}
}

// readTitle returns the rich text of a title, or its cached value when the
// title is a reference.
func readTitle(dec *xml.Decoder) (string, error) {
	var rich, cached strings.Builder
	err := walk(dec, func(se xml.StartElement, _ int) (bool, error) {
		switch se.Name.Local {
		case "t":
			t, err := readText(dec)
			rich.WriteString(t)
			return true, err
		case "v":
			t, err := readText(dec)
			cached.WriteString(t)
			return true, err
		}
		return false, nil
	})
	if rich.Len() > 0 {
		return strings.TrimSpace(rich.String()), err
	}
	return strings.TrimSpace(cached.String()), err
}

func readValueAxis(dec *xml.Decoder) (title string, axisRange []float64, err error) {
	var lo, hi *float64
	err = walk(dec, func(se xml.StartElement, _ int) (bool, error) {
		switch se.Name.Local {
		case "title":
			t, err := readTitle(dec)
			title = t
			return true, err
		case "min", "max":
			v, perr := strconv.ParseFloat(attr(se, "val"), 64)
			if perr != nil {
				return false, nil
			}
			if se.Name.Local == "min" {
				lo = &v
			} else {
				hi = &v
			}
		}
		return false, nil
	})
	if lo != nil && hi != nil {
		axisRange = []float64{*lo, *hi}
	}
	return title, axisRange, err
}

func readSeries(dec *xml.Decoder) (models.ChartSeries, error) {
	var s models.ChartSeries
	err := walk(dec, func(se xml.StartElement, depth int) (bool, error) {
		if depth != 1 {
			return false, nil
		}
		var err error
		switch se.Name.Local {
		case "tx":
			s.Name, s.NameRange, err = readSeriesName(dec)
		case "cat", "xVal":
			s.XRange, err = readFormula(dec)
		case "val", "yVal":
			s.YRange, err = readFormula(dec)
		default:
			return false, nil
		}
		return true, err
	})
	return s, err
}

func readSeriesName(dec *xml.Decoder) (name, ref string, err error) {
	err = walk(dec, func(se xml.StartElement, _ int) (bool, error) {
		switch se.Name.Local {
		case "f":
			t, err := readText(dec)
			ref = strings.TrimSpace(t)
			return true, err
		case "v":
			t, err := readText(dec)
			name = strings.TrimSpace(t)
			return true, err
		}
		return false, nil
	})
	return name, ref, err
}

// readFormula returns the reference formula of a data source element.
func readFormula(dec *xml.Decoder) (string, error) {
	var ref string
	err := walk(dec, func(se xml.StartElement, _ int) (bool, error) {
		if se.Name.Local != "f" || ref != "" {
			return false, nil
		}
		t, err := readText(dec)
		ref = strings.TrimSpace(t)
		return true, err
	})
	return ref, err
}
