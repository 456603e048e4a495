package parser

import (
	"math"
	"strings"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
)

// PresetGeomMap maps DrawingML preset geometry names to readable type labels.
// Unlisted presets are reported as "AutoShape-<preset>".
var PresetGeomMap = map[string]string{
	"flowChartProcess":           "AutoShape-FlowchartProcess",
	"flowChartDecision":          "AutoShape-FlowchartDecision",
	"flowChartTerminator":        "AutoShape-FlowchartTerminator",
	"flowChartData":              "AutoShape-FlowchartData",
	"flowChartDocument":          "AutoShape-FlowchartDocument",
	"flowChartMultidocument":     "AutoShape-FlowchartMultidocument",
	"flowChartPredefinedProcess": "AutoShape-FlowchartPredefinedProcess",
	"flowChartInternalStorage":   "AutoShape-FlowchartInternalStorage",
	"flowChartPreparation":       "AutoShape-FlowchartPreparation",
	"flowChartManualInput":       "AutoShape-FlowchartManualInput",
	"flowChartManualOperation":   "AutoShape-FlowchartManualOperation",
	"flowChartConnector":         "AutoShape-FlowchartConnector",
	"flowChartOffpageConnector":  "AutoShape-FlowchartOffpageConnector",
	"rect":                       "AutoShape-Rectangle",
	"roundRect":                  "AutoShape-RoundedRectangle",
	"ellipse":                    "AutoShape-Oval",
	"diamond":                    "AutoShape-Diamond",
	"triangle":                   "AutoShape-IsoscelesTriangle",
	"rightArrow":                 "AutoShape-RightArrow",
	"leftArrow":                  "AutoShape-LeftArrow",
	"upArrow":                    "AutoShape-UpArrow",
	"downArrow":                  "AutoShape-DownArrow",
	"straightConnector1":         "Line",
	"bentConnector2":             "AutoShape-Connector",
	"bentConnector3":             "AutoShape-Connector",
	"bentConnector4":             "AutoShape-Connector",
	"bentConnector5":             "AutoShape-Connector",
	"curvedConnector2":           "AutoShape-Connector",
	"curvedConnector3":           "AutoShape-Connector",
	"curvedConnector4":           "AutoShape-Connector",
	"curvedConnector5":           "AutoShape-Connector",
	"line":                       "Line",
	"textBox":                    "TextBox",
}

// ArrowHeadMap maps DrawingML line end types to the spreadsheet's arrow
// head style numbers.
var ArrowHeadMap = map[string]int{
	"none":     1,
	"triangle": 2,
	"stealth":  3,
	"diamond":  4,
	"oval":     5,
	"arrow":    2,
}

func arrowStyle(typ string) *int {
	if style, ok := ArrowHeadMap[typ]; ok {
		return &style
	}
	return nil
}

func typeLabel(prst, name string) string {
	switch {
	case prst != "":
		if label, ok := PresetGeomMap[prst]; ok {
			return label
		}
		return "AutoShape-" + prst
	case name != "":
		return name
	}
	return "Unknown"
}

// isConnectorShape reports whether a preset or label names a line or connector.
func isConnectorShape(prst, label string) bool {
	p := strings.ToLower(prst)
	if strings.Contains(p, "connector") || strings.Contains(p, "line") {
		return true
	}
	return strings.Contains(label, "Line") || strings.Contains(label, "Connector")
}

// includeShape keeps shapes that carry text, connectors and arrows; verbose
// keeps everything.
func includeShape(text, label string, connector, verbose bool) bool {
	return verbose || text != "" || connector || strings.Contains(label, "Arrow")
}

// shapesOf converts the shapes of one drawing. Non-connector shapes are
// numbered from 1 in document order before filtering, so ids are stable
// across modes, and connectors resolve their endpoints to those ids.
func shapesOf(drawn []drawnShape, g *Grid, verbose bool) []models.Shape {
	ids := make(map[string]int)
	next := 0
	labels := make([]string, len(drawn))
	connectors := make([]bool, len(drawn))
	for i, d := range drawn {
		labels[i] = typeLabel(d.prst, d.name)
		connectors[i] = d.connector || isConnectorShape(d.prst, labels[i])
		if !connectors[i] && d.excelID != "" {
			next++
			ids[d.excelID] = next
		}
	}

	var out []models.Shape
	for i, d := range drawn {
		if !includeShape(d.text, labels[i], connectors[i], verbose) {
			continue
		}
		l, t, w, h := bounds(d.xfrm, d.at, g)
		s := models.Shape{
			Name:     d.name,
			Text:     d.text,
			Type:     labels[i],
			Anchor:   anchorRange(d.at),
			L:        l,
			T:        t,
			Rotation: d.xfrm.rot,
		}
		if verbose {
			s.W, s.H = &w, &h
		}
		if connectors[i] {
			dx, dy := w, h
			if d.xfrm.flipH {
				dx = -dx
			}
			if d.xfrm.flipV {
				dy = -dy
			}
			s.Direction = computeDirection(dx, dy)
			s.BeginArrowStyle, s.EndArrowStyle = d.beginArrow, d.endArrow
			if id, ok := ids[d.startCxn]; ok {
				s.BeginID = &id
			}
			if id, ok := ids[d.endCxn]; ok {
				s.EndID = &id
			}
		} else if id, ok := ids[d.excelID]; ok {
			s.ID = &id
		}
		out = append(out, s)
	}
	return out
}

// computeDirection returns the compass heading of a vector in screen
// coordinates, where positive dy points down.
func computeDirection(dx, dy int) string {
	if dx == 0 && dy == 0 {
		return ""
	}
	angle := math.Atan2(float64(-dy), float64(dx)) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	headings := [...]string{"E", "NE", "N", "NW", "W", "SW", "S", "SE"}
	return headings[int(math.Floor((angle+22.5)/45))%8]
}
