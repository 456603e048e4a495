package models

// Shape represents a drawn shape, text box or connector on a sheet.
type Shape struct {
	// ID numbers the sheet's non-connector shapes from 1. Connectors refer to
	// these ids through BeginID and EndID.
	ID *int `json:"id,omitempty"`
	// Name is the shape name shown in the selection pane.
	Name string `json:"name,omitempty"`
	// Text is the visible text content of the shape.
	Text string `json:"text"`
	// Type is a readable label for the preset geometry, e.g. "AutoShape-Oval".
	Type string `json:"type,omitempty"`
	// Anchor is the cell range the shape is attached to. It is nil for
	// absolutely positioned shapes.
	Anchor *Range `json:"anchor,omitempty"`
	// L is the left offset in pixels.
	L int `json:"l"`
	// T is the top offset in pixels.
	T int `json:"t"`
	// W is the width in pixels (verbose mode only).
	W *int `json:"w,omitempty"`
	// H is the height in pixels (verbose mode only).
	H *int `json:"h,omitempty"`
	// Rotation is the clockwise rotation in degrees.
	Rotation *float64 `json:"rotation,omitempty"`
	// BeginArrowStyle is the arrow head at the start of a connector, using
	// the spreadsheet's numbering (1 none, 2 triangle, 3 stealth, 4 diamond, 5 oval).
	BeginArrowStyle *int `json:"begin_arrow_style,omitempty"`
	// EndArrowStyle is the arrow head at the end of a connector.
	EndArrowStyle *int `json:"end_arrow_style,omitempty"`
	// BeginID is the id of the shape a connector starts at.
	BeginID *int `json:"begin_id,omitempty"`
	// EndID is the id of the shape a connector ends at.
	EndID *int `json:"end_id,omitempty"`
	// Direction is the compass heading of a connector (N, NE, E, SE, S, SW, W, NW).
	Direction string `json:"direction,omitempty"`
}
