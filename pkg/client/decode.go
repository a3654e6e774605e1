package client

import (
	"fmt"
	"strconv"

	"github.com/Sternrassler/thema-client/pkg/result"
	"github.com/tidwall/gjson"
)

// decodeRows extracts data rows from a data endpoint response. The rows are
// found under key in the first element of a list, or under key in an object.
// A body without key holds no data and is reported as an error. Nested
// objects are flattened into dotted column names.
func decodeRows(body []byte, key string) ([]result.Row, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	doc := gjson.ParseBytes(body)

	var data gjson.Result
	switch {
	case doc.Type == gjson.Null:
		return nil, nil
	case doc.IsArray():
		first := doc.Get("0")
		if !first.Exists() {
			return nil, nil
		}
		if !first.IsObject() {
			return nil, fmt.Errorf("response list does not wrap a %q object", key)
		}
		data = gjson.GetBytes(body, "0."+key)
		if !data.Exists() {
			return nil, fmt.Errorf("response list has no %q key", key)
		}
	case doc.IsObject():
		data = gjson.GetBytes(body, key)
		if !data.Exists() {
			return nil, fmt.Errorf("response object has no %q key", key)
		}
	default:
		return nil, fmt.Errorf("unexpected %s response", doc.Type)
	}

	switch {
	case data.Type == gjson.Null:
		return nil, nil
	case !data.IsArray():
		return nil, fmt.Errorf("%q is %s, not a list", key, data.Type)
	}

	items := data.Array()
	rows := make([]result.Row, 0, len(items))
	for _, item := range items {
		row := result.NewRow()
		if item.IsObject() {
			flatten(&row, "", item)
		} else {
			row.Set("value", native(item))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// flatten writes obj into row in document order, joining nested object keys
// with dots.
func flatten(row *result.Row, prefix string, obj gjson.Result) {
	obj.ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		if prefix != "" {
			name = prefix + "." + name
		}
		if v.IsObject() && hasMembers(v) {
			flatten(row, name, v)
			return true
		}
		row.Set(name, native(v))
		return true
	})
}

func hasMembers(v gjson.Result) bool {
	found := false
	v.ForEach(func(_, _ gjson.Result) bool {
		found = true
		return false
	})
	return found
}

// native converts a JSON value into Go values; integral numbers become
// int64, other numbers float64.
func native(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return v.Str
	case gjson.True, gjson.False:
		return v.Bool()
	case gjson.Number:
		if i, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return i
		}
		return v.Float()
	}
	if v.IsArray() {
		items := v.Array()
		out := make([]any, len(items))
		for i, e := range items {
			out[i] = native(e)
		}
		return out
	}
	m := make(map[string]any)
	v.ForEach(func(k, e gjson.Result) bool {
		m[k.String()] = native(e)
		return true
	})
	return m
}
