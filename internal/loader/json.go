package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// object is a decoded JSON object that remembers key order.
type object struct {
	keys []string
	vals map[string]any
}

// decodeValue reads one JSON value keeping object key order. Numbers stay
// json.Number so their text is preserved.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		obj := &object{vals: make(map[string]any)}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := kt.(string)
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.vals[key]; !dup {
				obj.keys = append(obj.keys, key)
			}
			obj.vals[key] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, eris.Errorf("unexpected JSON delimiter %q", d)
}

// decodeDocument decodes exactly one JSON value from data.
func decodeDocument(data string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, eris.New("unexpected data after top-level JSON value")
	}
	return v, nil
}

func loadJSON(raw []byte) (*Result, error) {
	enc := DetectEncoding(raw)
	doc, err := decodeDocument(DecodeText(raw, enc.Detected))
	if err != nil {
		return nil, wrap(KindUnreadableContainer, err, "invalid JSON")
	}

	res := &Result{Delimiter: ",", Format: "json", Encoding: &enc}
	var records []any
	switch v := doc.(type) {
	case []any:
		records = v
	case *object:
		found := false
		for _, k := range v.keys {
			if arr, ok := v.vals[k].([]any); ok {
				records = arr
				found = true
				res.Warnings = append(res.Warnings, fmt.Sprintf("Nested JSON: used array at top-level key '%s'", k))
				break
			}
		}
		if !found {
			records = []any{v}
			res.Warnings = append(res.Warnings, "JSON is a single object; treated as a one-row table")
		}
	default:
		return nil, Errorf(KindUnsupported, "JSON root must be an array or object")
	}
	res.Rows = tabulate(records)
	return res, nil
}

func loadJSONL(raw []byte) *Result {
	enc := DetectEncoding(raw)
	text := strings.ReplaceAll(DecodeText(raw, enc.Detected), "\r\n", "\n")

	var (
		records []any
		errs    []string
	)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := decodeDocument(line)
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", i+1, err))
			continue
		}
		records = append(records, v)
	}

	res := &Result{Delimiter: ",", Format: "jsonl", Encoding: &enc, Rows: tabulate(records)}
	if len(errs) > 0 {
		shown := errs[:min(3, len(errs))]
		msg := fmt.Sprintf("%d lines could not be parsed: %s", len(errs), strings.Join(shown, "; "))
		if extra := len(errs) - len(shown); extra > 0 {
			msg += fmt.Sprintf(" (+%d more)", extra)
		}
		res.Warnings = append(res.Warnings, msg)
	}
	return res
}

// tabulate flattens records into a header row plus one row per record.
// Columns follow first appearance.
func tabulate(records []any) [][]string {
	var columns []string
	index := make(map[string]int)
	flat := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		fields := make(map[string]string)
		var order []string
		if obj, ok := rec.(*object); ok {
			flatten("", obj, fields, &order)
		} else {
			fields["value"] = scalarText(rec)
			order = append(order, "value")
		}
		for _, k := range order {
			if _, ok := index[k]; !ok {
				index[k] = len(columns)
				columns = append(columns, k)
			}
		}
		flat = append(flat, fields)
	}
	if len(columns) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(flat)+1)
	rows = append(rows, columns)
	for _, fields := range flat {
		row := make([]string, len(columns))
		for k, v := range fields {
			row[index[k]] = v
		}
		rows = append(rows, row)
	}
	return rows
}

func flatten(prefix string, obj *object, out map[string]string, order *[]string) {
	for _, k := range obj.keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := obj.vals[k].(*object); ok {
			flatten(key, nested, out, order)
			continue
		}
		if _, seen := out[key]; !seen {
			*order = append(*order, key)
		}
		out[key] = scalarText(obj.vals[k])
	}
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		var buf bytes.Buffer
		writeJSON(&buf, v)
		return buf.String()
	}
}

// writeJSON renders arrays and objects back to compact JSON, keys in
// their original order.
func writeJSON(buf *bytes.Buffer, v any) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		b, _ := json.Marshal(t)
		buf.Write(b)
	case json.Number:
		buf.WriteString(t.String())
	case bool:
		buf.WriteString(scalarText(t))
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSON(buf, e)
		}
		buf.WriteByte(']')
	case *object:
		buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, _ := json.Marshal(k)
			buf.Write(b)
			buf.WriteByte(':')
			writeJSON(buf, t.vals[k])
		}
		buf.WriteByte('}')
	}
}
