package schema

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
)

var (
	scannerType  = reflect.TypeFor[sql.Scanner]()
	stringerType = reflect.TypeFor[fmt.Stringer]()
	uuidType     = reflect.TypeFor[uuid.UUID]()
	timeType     = reflect.TypeFor[time.Time]()
	bytesType    = reflect.TypeFor[[]byte]()
)

// Layouts accepted for text timestamps, in the order they are tried.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// decodeHook adapts driver values before mapstructure's weak decoding.
// The strict hook runs last and rejects the lossy conversions weak decoding
// would otherwise accept.
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	uuidHook,
	scannerHook,
	bytesHook,
	timeHook,
	mapstructure.StringToTimeDurationHookFunc(),
	strictHook,
)

var errOverflow = errors.New("value out of range")

// Convert converts a value read from a row to T. A nil value yields the zero
// value of T.
//
//	name, err := schema.Convert[string](row["Name"])
func Convert[T any](v any) (T, error) {
	var out T
	if err := AssignValue(reflect.ValueOf(&out).Elem(), v); err != nil {
		return out, err
	}
	return out, nil
}

// AssignValue stores src into the settable value dst, converting between
// the representations database drivers return and the declared Go type.
func AssignValue(dst reflect.Value, src any) error {
	if !dst.CanSet() {
		return fmt.Errorf("schema: cannot assign to unsettable %s", dst.Type())
	}
	if src == nil {
		dst.SetZero()
		return nil
	}
	if err := decode(dst.Addr().Interface(), src, false); err != nil {
		return convertError(src, dst.Type(), err)
	}
	return nil
}

// DecodeRow stores the columns of row into the struct pointed to by dst in
// one pass. Keys match field names exactly and embedded structs are
// flattened. Keys without a matching field are ignored.
func DecodeRow(dst any, row map[string]any) error {
	if err := decode(dst, row, true); err != nil {
		return fmt.Errorf("schema: decoding row into %T: %w", dst, err)
	}
	return nil
}

func decode(result, input any, squash bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Squash:           squash,
		DecodeHook:       decodeHook,
		MatchName:        func(key, name string) bool { return key == name },
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func uuidHook(from, to reflect.Type, data any) (any, error) {
	if to != uuidType || from == uuidType {
		return data, nil
	}
	switch s := data.(type) {
	case string:
		return uuid.Parse(s)
	case []byte:
		if len(s) == 16 {
			return uuid.FromBytes(s)
		}
		return uuid.ParseBytes(s)
	case [16]byte:
		return uuid.UUID(s), nil
	}
	return nil, fmt.Errorf("unsupported conversion from %s", from)
}

func scannerHook(from, to reflect.Type, data any) (any, error) {
	if from == to || to.Kind() == reflect.Pointer || !reflect.PointerTo(to).Implements(scannerType) {
		return data, nil
	}
	p := reflect.New(to)
	if err := p.Interface().(sql.Scanner).Scan(data); err != nil {
		return nil, err
	}
	return p.Elem().Interface(), nil
}

// bytesHook turns driver text into strings unless the target holds bytes.
func bytesHook(from, to reflect.Type, data any) (any, error) {
	if from != bytesType {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Slice, reflect.Array, reflect.Interface:
		return data, nil
	}
	return string(data.([]byte)), nil
}

func timeHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	s := reflect.ValueOf(data).String()
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", s)
}

// strictHook rejects conversions that lose or invent information: numbers
// into text, fractional floats into integers and out of range integers.
func strictHook(from, to reflect.Type, data any) (any, error) {
	v := reflect.ValueOf(data)
	switch to.Kind() {
	case reflect.String:
		if from.Kind() == reflect.String {
			return data, nil
		}
		if from.Implements(stringerType) {
			return data.(fmt.Stringer).String(), nil
		}
		if isNumber(from.Kind()) || from.Kind() == reflect.Bool {
			return nil, fmt.Errorf("unsupported conversion from %s", from)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst := reflect.New(to).Elem()
		switch {
		case isInt(from.Kind()):
			if dst.OverflowInt(v.Int()) {
				return nil, errOverflow
			}
		case isUint(from.Kind()):
			if v.Uint() > math.MaxInt64 || dst.OverflowInt(int64(v.Uint())) {
				return nil, errOverflow
			}
		case isFloat(from.Kind()):
			f := v.Float()
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("%v has a fractional part", f)
			}
			if f < math.MinInt64 || f >= math.MaxInt64 || dst.OverflowInt(int64(f)) {
				return nil, errOverflow
			}
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst := reflect.New(to).Elem()
		switch {
		case isInt(from.Kind()):
			if v.Int() < 0 || dst.OverflowUint(uint64(v.Int())) {
				return nil, errOverflow
			}
		case isUint(from.Kind()):
			if dst.OverflowUint(v.Uint()) {
				return nil, errOverflow
			}
		case isFloat(from.Kind()):
			f := v.Float()
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("%v has a fractional part", f)
			}
			if f < 0 || f >= math.MaxUint64 || dst.OverflowUint(uint64(f)) {
				return nil, errOverflow
			}
		}
	}
	return data, nil
}

func convertError(src any, dt reflect.Type, cause error) error {
	return fmt.Errorf("schema: converting %T to %s: %w", src, dt, cause)
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
