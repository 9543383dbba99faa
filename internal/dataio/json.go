package dataio

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	jsoniter "github.com/json-iterator/go"

	"github.com/udisondev/opdps/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReadJSON parses operators from JSON. The document may be an array of
// operator objects, a single object, or {"operators": [...]}. An operator
// object may nest its stats under "form"; "skill" and "modifiers" are read
// as structured values.
func ReadJSON(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("reading json: %w", err)
	}
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(data) == 0 {
		return Result{}, fmt.Errorf("json is empty")
	}

	var items []jsoniter.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return Result{}, fmt.Errorf("decoding json array: %w", err)
		}
	case '{':
		var wrapper struct {
			Operators []jsoniter.RawMessage `json:"operators"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return Result{}, fmt.Errorf("decoding json object: %w", err)
		}
		if wrapper.Operators != nil {
			items = wrapper.Operators
		} else {
			items = []jsoniter.RawMessage{data}
		}
	default:
		return Result{}, fmt.Errorf("json must be an object or an array")
	}

	var res Result
	for i, item := range items {
		rec, err := decodeOperator(item)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: i + 1, Err: err})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func decodeOperator(item []byte) (model.OperatorRecord, error) {
	var obj map[string]jsoniter.RawMessage
	if err := json.Unmarshal(item, &obj); err != nil {
		return model.OperatorRecord{}, fmt.Errorf("not an operator object: %w", err)
	}
	src := obj
	if form, ok := obj["form"]; ok {
		var nested map[string]jsoniter.RawMessage
		if err := json.Unmarshal(form, &nested); err == nil && nested != nil {
			src = nested
		}
	}

	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	cells := make([]string, len(keys))
	for i, k := range keys {
		cells[i] = scalar(src[k])
	}

	p, err := newMapper(keys).profile(cells)
	if err != nil {
		return model.OperatorRecord{}, err
	}
	rec := model.OperatorRecord{Profile: p}

	if raw, ok := lookup(obj, src, "skill"); ok {
		if err := json.Unmarshal(raw, &rec.Profile.Skill); err != nil {
			return model.OperatorRecord{}, fmt.Errorf("skill: %w", err)
		}
	}
	if raw, ok := lookup(obj, src, "modifiers"); ok {
		if err := json.Unmarshal(raw, &rec.Modifiers); err != nil {
			return model.OperatorRecord{}, fmt.Errorf("modifiers: %w", err)
		}
	}
	return rec, nil
}

func lookup(outer, inner map[string]jsoniter.RawMessage, key string) (jsoniter.RawMessage, bool) {
	if v, ok := outer[key]; ok {
		return v, true
	}
	v, ok := inner[key]
	return v, ok
}

// scalar renders a JSON string or number as cell text; other values become "".
func scalar(raw jsoniter.RawMessage) string {
	switch jsoniter.Get(raw).ValueType() {
	case jsoniter.StringValue:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case jsoniter.NumberValue:
		return string(bytes.TrimSpace(raw))
	}
	return ""
}

// WriteJSON writes recs as an indented array using the canonical field names.
func WriteJSON(w io.Writer, recs []model.OperatorRecord) error {
	header := headerNames()
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		obj := make(map[string]any, len(header)+2)
		for i, v := range row(rec.Profile) {
			obj[header[i]] = v
		}
		if rec.Profile.Skill != nil {
			obj["skill"] = rec.Profile.Skill
		}
		if len(rec.Modifiers) > 0 {
			obj["modifiers"] = rec.Modifiers
		}
		out = append(out, obj)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing json: %w", err)
	}
	return nil
}
