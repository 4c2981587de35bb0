package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/diwise/dataset-converter/pkg/table/errors"
)

// NestedPolicy decides what happens to object and array values inside a record
type NestedPolicy int

const (
	NestedReject NestedPolicy = iota
	NestedJSON
	NestedFlatten
)

func (p NestedPolicy) String() string {
	switch p {
	case NestedJSON:
		return "json"
	case NestedFlatten:
		return "flatten"
	}
	return "reject"
}

func ParseNestedPolicy(s string) (NestedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return NestedReject, nil
	case "json":
		return NestedJSON, nil
	case "flatten":
		return NestedFlatten, nil
	}
	return NestedReject, fmt.Errorf("unknown nested policy %q (expected reject, json or flatten)", s)
}

type DecodeOption func(*decoder)

func WithNestedPolicy(p NestedPolicy) DecodeOption {
	return func(d *decoder) {
		d.nested = p
	}
}

type decoder struct {
	nested NestedPolicy
}

var utf8BOM = []byte("\xef\xbb\xbf")

// Decode parses a JSON document whose root is an array of objects. Keys keep
// the order they have in the document.
func Decode(data []byte, options ...DecodeOption) (Dataset, error) {
	d := &decoder{nested: NestedReject}
	for _, option := range options {
		option(d)
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewParseError("invalid json: "+err.Error(), err)
	}

	_, rootType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.NewParseError("invalid json: "+err.Error(), err)
	}

	if rootType != jsonparser.Array {
		return nil, errors.NewParseError(
			fmt.Sprintf("root value must be an array, found %s", kindOf(rootType)), nil,
		)
	}

	dataset := Dataset{}
	index := 0

	var decodeErr error

	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, e error) {
		defer func() { index++ }()

		if decodeErr != nil {
			return
		}

		if e != nil {
			decodeErr = errors.NewParseError(fmt.Sprintf("record %d: %s", index, e.Error()), e)
			return
		}

		if dataType != jsonparser.Object {
			decodeErr = errors.NewParseError(
				fmt.Sprintf("record %d must be an object, found %s", index, kindOf(dataType)), nil,
			)
			return
		}

		r, err := d.decodeRecord(index, value)
		if err != nil {
			decodeErr = err
			return
		}

		dataset = append(dataset, r)
	})

	if decodeErr != nil {
		return nil, decodeErr
	}

	if err != nil {
		return nil, errors.NewParseError("invalid json: "+err.Error(), err)
	}

	return dataset, nil
}

func (d *decoder) decodeRecord(index int, object []byte) (Record, error) {
	r := Record{}

	err := jsonparser.ObjectEach(object, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		return d.addValue(&r, index, string(key), value, dataType)
	})

	return r, err
}

func (d *decoder) addValue(r *Record, index int, name string, value []byte, dataType jsonparser.ValueType) error {
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return errors.NewParseError(fmt.Sprintf("record %d: field %q: %s", index, name, err.Error()), err)
		}
		r.Set(name, TextValue(s))
	case jsonparser.Number:
		r.Set(name, NumberValue(string(value)))
	case jsonparser.Boolean:
		b, err := strconv.ParseBool(string(value))
		if err != nil {
			return errors.NewParseError(fmt.Sprintf("record %d: field %q: %s", index, name, err.Error()), err)
		}
		r.Set(name, BooleanValue(b))
	case jsonparser.Null:
		r.Set(name, NullValue())
	case jsonparser.Object, jsonparser.Array:
		return d.addNested(r, index, name, value, dataType)
	default:
		return errors.NewParseError(
			fmt.Sprintf("record %d: field %q has a value of unknown type", index, name), nil,
		)
	}

	return nil
}

func (d *decoder) addNested(r *Record, index int, name string, value []byte, dataType jsonparser.ValueType) error {
	kind := kindOf(dataType)

	switch d.nested {
	case NestedJSON:
		r.Set(name, RawValue(kind, value))
		return nil
	case NestedFlatten:
		return d.flatten(r, index, name, value, dataType)
	}

	return errors.NewUnsupportedTypeError(
		fmt.Sprintf("record %d: field %q holds a nested %s", index, name, kind),
	)
}

func (d *decoder) flatten(r *Record, index int, prefix string, value []byte, dataType jsonparser.ValueType) error {
	children := 0

	if dataType == jsonparser.Object {
		err := jsonparser.ObjectEach(value, func(key []byte, v []byte, t jsonparser.ValueType, _ int) error {
			children++
			return d.addValue(r, index, prefix+"."+string(key), v, t)
		})
		if err != nil {
			return err
		}
	} else {
		var flattenErr error
		_, err := jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, e error) {
			pos := children
			children++

			if flattenErr != nil {
				return
			}
			if e != nil {
				flattenErr = e
				return
			}

			flattenErr = d.addValue(r, index, prefix+"."+strconv.Itoa(pos), v, t)
		})
		if flattenErr != nil {
			return flattenErr
		}
		if err != nil {
			return errors.NewParseError(fmt.Sprintf("record %d: field %q: %s", index, prefix, err.Error()), err)
		}
	}

	if children == 0 {
		r.Set(prefix, NullValue())
	}

	return nil
}

func kindOf(t jsonparser.ValueType) Kind {
	switch t {
	case jsonparser.String:
		return Text
	case jsonparser.Number:
		return Number
	case jsonparser.Boolean:
		return Boolean
	case jsonparser.Object:
		return Object
	case jsonparser.Array:
		return Array
	}
	return Null
}
