package loader

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

const (
	odsTableNS = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
	odsTextNS  = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"

	// maxRepeat caps number-*-repeated expansion for non-empty content.
	maxRepeat = 1 << 14
)

// readODS streams content.xml out of an OpenDocument spreadsheet.
func readODS(path string) ([]sheet, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, wrap(KindUnreadableContainer, err, "open workbook %s", path)
	}
	defer zr.Close() //nolint:errcheck

	for _, f := range zr.File {
		if f.Name != "content.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, wrap(KindUnreadableContainer, err, "open content.xml in %s", path)
		}
		defer rc.Close() //nolint:errcheck
		sheets, err := parseODSContent(rc)
		if err != nil {
			return nil, wrap(KindUnreadableContainer, err, "parse content.xml in %s", path)
		}
		return sheets, nil
	}
	return nil, Errorf(KindUnreadableContainer, "%s has no content.xml", path)
}

// odsState tracks the table, row and cell being decoded. Empty rows and
// cells are only materialized once something non-empty follows them, so
// trailing repeats never expand.
type odsState struct {
	sheets []sheet
	cur    *sheet

	pendingRows int
	rowRepeat   int
	row         []string
	pendingCell int

	inCell    bool
	colRepeat int
	paras     []string

	inPara bool
	para   strings.Builder
}

func parseODSContent(r io.Reader) ([]sheet, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, err
		}
		return enc.NewDecoder().Reader(input), nil
	}

	st := &odsState{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			st.start(t)
		case xml.EndElement:
			st.end(t)
		case xml.CharData:
			if st.inPara {
				st.para.Write(t)
			}
		}
	}
	return st.sheets, nil
}

func (st *odsState) start(t xml.StartElement) {
	switch {
	case t.Name.Space == odsTableNS && t.Name.Local == "table":
		st.cur = &sheet{name: attr(t, odsTableNS, "name")}
		st.pendingRows = 0
	case st.cur == nil:
		return
	case t.Name.Space == odsTableNS && t.Name.Local == "table-row":
		st.rowRepeat = repeat(t, "number-rows-repeated")
		st.row = nil
		st.pendingCell = 0
	case t.Name.Space == odsTableNS && (t.Name.Local == "table-cell" || t.Name.Local == "covered-table-cell"):
		st.inCell = true
		st.colRepeat = repeat(t, "number-columns-repeated")
		st.paras = st.paras[:0]
	case !st.inCell || t.Name.Space != odsTextNS:
		return
	case t.Name.Local == "p":
		st.inPara = true
		st.para.Reset()
	case !st.inPara:
		return
	case t.Name.Local == "s":
		n, err := strconv.Atoi(attr(t, odsTextNS, "c"))
		if err != nil || n < 1 {
			n = 1
		}
		st.para.WriteString(strings.Repeat(" ", n))
	case t.Name.Local == "tab":
		st.para.WriteByte('\t')
	case t.Name.Local == "line-break":
		st.para.WriteByte('\n')
	}
}

func (st *odsState) end(t xml.EndElement) {
	switch {
	case t.Name.Space == odsTextNS && t.Name.Local == "p" && st.inPara:
		st.paras = append(st.paras, st.para.String())
		st.inPara = false
	case t.Name.Space == odsTableNS && (t.Name.Local == "table-cell" || t.Name.Local == "covered-table-cell") && st.inCell:
		st.inCell = false
		value := strings.Join(st.paras, "\n")
		if value == "" {
			st.pendingCell += st.colRepeat
			return
		}
		for ; st.pendingCell > 0; st.pendingCell-- {
			st.row = append(st.row, "")
		}
		for i := 0; i < min(st.colRepeat, maxRepeat); i++ {
			st.row = append(st.row, value)
		}
	case t.Name.Space == odsTableNS && t.Name.Local == "table-row" && st.cur != nil:
		if len(st.row) == 0 {
			st.pendingRows += st.rowRepeat
			return
		}
		for ; st.pendingRows > 0; st.pendingRows-- {
			st.cur.rows = append(st.cur.rows, []string{})
		}
		for i := 0; i < min(st.rowRepeat, maxRepeat); i++ {
			st.cur.rows = append(st.cur.rows, append([]string(nil), st.row...))
		}
	case t.Name.Space == odsTableNS && t.Name.Local == "table" && st.cur != nil:
		st.sheets = append(st.sheets, *st.cur)
		st.cur = nil
	}
}

func attr(t xml.StartElement, space, local string) string {
	for _, a := range t.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func repeat(t xml.StartElement, local string) int {
	n, err := strconv.Atoi(attr(t, odsTableNS, local))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
