package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
	"github.com/xuri/excelize/v2"
)

// Relationship types are matched by suffix so transitional and strict
// documents both resolve.
const (
	relWorksheet = "/worksheet"
	relDrawing   = "/drawing"
	relChart     = "/chart"
)

// maxPartSize bounds one decompressed package part.
const maxPartSize = 64 << 20

// Package is a read-only index of the parts of an xlsx document. excelize
// has no reader for DrawingML shapes or chart definitions, so those parts
// are read directly.
type Package struct {
	parts map[string]*zip.File
}

// OpenPackage indexes the parts of a serialized xlsx document.
func OpenPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	p := &Package{parts: make(map[string]*zip.File, len(zr.File))}
	for _, zf := range zr.File {
		p.parts[strings.TrimPrefix(zf.Name, "/")] = zf
	}
	return p, nil
}

// Part returns the content of a part, or nil when the part does not exist.
func (p *Package) Part(name string) ([]byte, error) {
	zf, ok := p.parts[name]
	if !ok {
		return nil, nil
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPartSize {
		return nil, fmt.Errorf("part %s is larger than %d bytes", name, maxPartSize)
	}
	return data, nil
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// rels returns the relationships of a part keyed by id. Internal targets are
// resolved to part names.
func (p *Package) rels(part string) (map[string]relationship, error) {
	dir, file := path.Split(part)
	data, err := p.Part(dir + "_rels/" + file + ".rels")
	if err != nil || data == nil {
		return nil, err
	}
	var doc struct {
		Rels []relationship `xml:"Relationship"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("relationships of %s: %w", part, err)
	}
	out := make(map[string]relationship, len(doc.Rels))
	for _, r := range doc.Rels {
		if r.TargetMode != "External" {
			r.Target = resolvePart(dir, r.Target)
		}
		out[r.ID] = r
	}
	return out, nil
}

// resolvePart resolves a relationship target against the directory of the
// part that owns the relationship.
func resolvePart(dir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(dir, target))
}

// SheetDrawings maps each sheet that has drawings to its drawing part.
func (p *Package) SheetDrawings() (map[string]string, error) {
	data, err := p.Part("xl/workbook.xml")
	if err != nil || data == nil {
		return nil, err
	}
	var wb struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"`
		} `xml:"sheets>sheet"`
	}
	if err := xml.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("xl/workbook.xml: %w", err)
	}
	wbRels, err := p.rels("xl/workbook.xml")
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for _, s := range wb.Sheets {
		rel, ok := wbRels[s.RID]
		if !ok || !strings.HasSuffix(rel.Type, relWorksheet) {
			continue
		}
		sheetRels, err := p.rels(rel.Target)
		if err != nil {
			return out, err
		}
		for _, r := range sheetRels {
			if strings.HasSuffix(r.Type, relDrawing) {
				out[s.Name] = r.Target
				break
			}
		}
	}
	return out, nil
}

// ExtractSheetDrawings reads the shapes and charts of one sheet from its
// drawing part. Cell anchors are measured against the sheet in f. Verbose
// adds sizes and shapes that carry no text.
func ExtractSheetDrawings(f *excelize.File, pkg *Package, sheet, drawingPart string, verbose bool) ([]models.Shape, []models.Chart, error) {
	data, err := pkg.Part(drawingPart)
	if err != nil || data == nil {
		return nil, nil, err
	}
	d, err := parseDrawing(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", drawingPart, err)
	}
	g := NewGrid(f, sheet)
	shapes := shapesOf(d.shapes, g, verbose)
	charts, err := chartsOf(pkg, drawingPart, d.frames, g, verbose)
	return shapes, charts, err
}

// cellMarker is a zero-based cell position with EMU offsets into the cell.
type cellMarker struct {
	col, row       int
	colOff, rowOff int64
}

// placement is the position of one drawing anchor. from and to are set for
// cell anchors; x, y, cx and cy hold the EMU position of an absolute anchor
// and the size of a one-cell anchor.
type placement struct {
	from, to     *cellMarker
	x, y, cx, cy int64
}

// transform is an xfrm element, lengths in EMU.
type transform struct {
	x, y, cx, cy int64
	flipH, flipV bool
	rot          *float64
	set          bool
}

type drawnShape struct {
	name, text, prst     string
	excelID              string
	connector            bool
	startCxn, endCxn     string
	beginArrow, endArrow *int
	xfrm                 transform
	at                   *placement
}

type chartFrame struct {
	name string
	rID  string
	xfrm transform
	at   *placement
}

type drawing struct {
	shapes []drawnShape
	frames []chartFrame
}

// parseDrawing collects the shapes and chart frames of a drawing part in
// document order. Group members share the placement of their group.
func parseDrawing(data []byte) (*drawing, error) {
	d := &drawing{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return d, nil
		}
		if err != nil {
			return d, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			switch se.Name.Local {
			case "twoCellAnchor", "oneCellAnchor", "absoluteAnchor":
				if err := d.readAnchor(dec); err != nil {
					return d, err
				}
			}
		}
	}
}

// walk reads up to the end of the current element and calls fn for every
// nested start element; depth is 1 for direct children. fn reports whether
// it consumed the element through its end tag.
func walk(dec *xml.Decoder, fn func(se xml.StartElement, depth int) (bool, error)) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			consumed, err := fn(t, depth)
			if err != nil {
				return err
			}
			if !consumed {
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// readText returns the character data up to the end of the current element.
func readText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return b.String(), err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return b.String(), nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func attrInt(se xml.StartElement, local string) int64 {
	n, _ := strconv.ParseInt(attr(se, local), 10, 64)
	return n
}

func (d *drawing) readAnchor(dec *xml.Decoder) error {
	at := &placement{}
	firstShape, firstFrame := len(d.shapes), len(d.frames)
	err := walk(dec, func(se xml.StartElement, depth int) (bool, error) {
		switch se.Name.Local {
		case "from", "to":
			m, err := readMarker(dec)
			if se.Name.Local == "from" {
				at.from = m
			} else {
				at.to = m
			}
			return true, err
		case "pos":
			if depth == 1 {
				at.x, at.y = attrInt(se, "x"), attrInt(se, "y")
			}
		case "ext":
			if depth == 1 {
				at.cx, at.cy = attrInt(se, "cx"), attrInt(se, "cy")
			}
		case "sp", "cxnSp":
			s, err := readShape(dec, se.Name.Local == "cxnSp")
			d.shapes = append(d.shapes, s)
			return true, err
		case "graphicFrame":
			fr, err := readFrame(dec)
			if fr.rID != "" {
				d.frames = append(d.frames, fr)
			}
			return true, err
		}
		return false, nil
	})
	for i := firstShape; i < len(d.shapes); i++ {
		d.shapes[i].at = at
	}
	for i := firstFrame; i < len(d.frames); i++ {
		d.frames[i].at = at
	}
	return err
}

func readMarker(dec *xml.Decoder) (*cellMarker, error) {
	m := &cellMarker{}
	err := walk(dec, func(se xml.StartElement, _ int) (bool, error) {
		text, err := readText(dec)
		if err != nil {
			return true, err
		}
		n, _ := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		switch se.Name.Local {
		case "col":
			m.col = int(n)
		case "row":
			m.row = int(n)
		case "colOff":
			m.colOff = n
		case "rowOff":
			m.rowOff = n
		}
		return true, nil
	})
	return m, err
}

func readXfrm(dec *xml.Decoder, start xml.StartElement) (transform, error) {
	x := transform{
		set:   true,
		flipH: attr(start, "flipH") == "1" || attr(start, "flipH") == "true",
		flipV: attr(start, "flipV") == "1" || attr(start, "flipV") == "true",
	}
	// Rotation is stored in 60000ths of a degree.
	if rot := attrInt(start, "rot"); rot != 0 {
		deg := float64(rot) / 60000
		x.rot = &deg
	}
	err := walk(dec, func(se xml.StartElement, _ int) (bool, error) {
		switch se.Name.Local {
		case "off":
			x.x, x.y = attrInt(se, "x"), attrInt(se, "y")
		case "ext":
			x.cx, x.cy = attrInt(se, "cx"), attrInt(se, "cy")
		}
		return false, nil
	})
	return x, err
}

func readShape(dec *xml.Decoder, connector bool) (drawnShape, error) {
	s := drawnShape{connector: connector}
	var text strings.Builder
	err := walk(dec, func(se xml.StartElement, _ int) (bool, error) {
		switch se.Name.Local {
		case "cNvPr":
			s.excelID, s.name = attr(se, "id"), attr(se, "name")
		case "xfrm":
			x, err := readXfrm(dec, se)
			s.xfrm = x
			return true, err
		case "prstGeom":
			s.prst = attr(se, "prst")
		case "p":
			if text.Len() > 0 {
				text.WriteByte('\n')
			}
		case "t":
			t, err := readText(dec)
			text.WriteString(t)
			return true, err
		case "headEnd":
			s.beginArrow = arrowStyle(attr(se, "type"))
		case "tailEnd":
			s.endArrow = arrowStyle(attr(se, "type"))
		case "stCxn":
			s.startCxn = attr(se, "id")
		case "endCxn":
			s.endCxn = attr(se, "id")
		}
		return false, nil
	})
	s.text = strings.TrimSpace(text.String())
	return s, err
}

func readFrame(dec *xml.Decoder) (chartFrame, error) {
	var fr chartFrame
	err := walk(dec, func(se xml.StartElement, _ int) (bool, error) {
		switch se.Name.Local {
		case "cNvPr":
			fr.name = attr(se, "name")
		case "xfrm":
			x, err := readXfrm(dec, se)
			fr.xfrm = x
			return true, err
		case "chart":
			fr.rID = attr(se, "id")
		}
		return false, nil
	})
	return fr, err
}

// Grid measures a sheet's columns and rows in pixels. Edges are computed
// lazily and cached.
type Grid struct {
	f     *excelize.File
	sheet string
	cols  []int
	rows  []int
}

// NewGrid returns a Grid for sheet.
func NewGrid(f *excelize.File, sheet string) *Grid {
	return &Grid{f: f, sheet: sheet, cols: []int{0}, rows: []int{0}}
}

// ColEdge returns the pixel offset of the left edge of zero-based column col.
func (g *Grid) ColEdge(col int) int {
	col = min(max(col, 0), excelize.MaxColumns)
	for n := len(g.cols); n <= col; n++ {
		w := DefaultColWidth
		if name, err := excelize.ColumnNumberToName(n); err == nil {
			if v, err := g.f.GetColWidth(g.sheet, name); err == nil {
				w = v
			}
		}
		g.cols = append(g.cols, g.cols[n-1]+ColWidthToPixels(w))
	}
	return g.cols[col]
}

// RowEdge returns the pixel offset of the top edge of zero-based row row.
func (g *Grid) RowEdge(row int) int {
	row = min(max(row, 0), excelize.TotalRows)
	for n := len(g.rows); n <= row; n++ {
		h := 15.0
		if v, err := g.f.GetRowHeight(g.sheet, n); err == nil {
			h = v
		}
		g.rows = append(g.rows, g.rows[n-1]+PointsToPixels(h))
	}
	return g.rows[row]
}

// bounds returns the pixel rectangle of a drawing item. The xfrm wins when
// it carries a position or size; otherwise the anchor is measured on g.
func bounds(x transform, at *placement, g *Grid) (l, t, w, h int) {
	if x.set && (x.x != 0 || x.y != 0 || x.cx != 0 || x.cy != 0) {
		return EMUToPixels(x.x), EMUToPixels(x.y), EMUToPixels(x.cx), EMUToPixels(x.cy)
	}
	if at == nil {
		return 0, 0, 0, 0
	}
	if at.from == nil {
		return EMUToPixels(at.x), EMUToPixels(at.y), EMUToPixels(at.cx), EMUToPixels(at.cy)
	}
	l = g.ColEdge(at.from.col) + EMUToPixels(at.from.colOff)
	t = g.RowEdge(at.from.row) + EMUToPixels(at.from.rowOff)
	if at.to == nil {
		return l, t, EMUToPixels(at.cx), EMUToPixels(at.cy)
	}
	w = g.ColEdge(at.to.col) + EMUToPixels(at.to.colOff) - l
	h = g.RowEdge(at.to.row) + EMUToPixels(at.to.rowOff) - t
	return l, t, w, h
}

// anchorRange returns the cells covered by a cell anchor. An item ending
// exactly on a cell edge does not cover the cell after that edge.
func anchorRange(at *placement) *models.Range {
	if at == nil || at.from == nil {
		return nil
	}
	r := models.Range{R1: at.from.row + 1, C1: at.from.col + 1, R2: at.from.row + 1, C2: at.from.col + 1}
	if to := at.to; to != nil {
		r.C2, r.R2 = to.col+1, to.row+1
		if to.colOff == 0 && to.col > at.from.col {
			r.C2--
		}
		if to.rowOff == 0 && to.row > at.from.row {
			r.R2--
		}
	}
	return &r
}
