package fakestore

import (
	"bytes"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// matches evaluates a flat filter against a document: every element
// must hold, values are compared after decoding both sides to Go
// values with integer widths normalized.
func matches(doc bson.Raw, filter bson.D) bool {
	for _, elem := range filter {
		if !matchField(doc, elem.Key, elem.Value) {
			return false
		}
	}
	return true
}

func matchField(doc bson.Raw, key string, expected any) bool {
	rv, err := doc.LookupErr(strings.Split(key, ".")...)
	if err != nil {
		return false
	}
	actual := decodedValue(rv)

	if ops, ok := expected.(bson.D); ok && isOperatorDoc(ops) {
		for _, op := range ops {
			if !applyOperator(actual, op.Key, op.Value) {
				return false
			}
		}
		return true
	}
	return valueEqual(actual, expected)
}

func isOperatorDoc(d bson.D) bool {
	return len(d) > 0 && strings.HasPrefix(d[0].Key, "$")
}

func applyOperator(actual any, op string, operand any) bool {
	switch op {
	case "$eq":
		return valueEqual(actual, operand)
	case "$ne":
		return !valueEqual(actual, operand)
	case "$in":
		v := reflect.ValueOf(operand)
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return false
		}
		for i := 0; i < v.Len(); i++ {
			if valueEqual(actual, v.Index(i).Interface()) {
				return true
			}
		}
		return false
	case "$gt":
		cmp, ok := compareValues(actual, operand)
		return ok && cmp > 0
	case "$gte":
		cmp, ok := compareValues(actual, operand)
		return ok && cmp >= 0
	case "$lt":
		cmp, ok := compareValues(actual, operand)
		return ok && cmp < 0
	case "$lte":
		cmp, ok := compareValues(actual, operand)
		return ok && cmp <= 0
	}
	return false
}

// decodedValue decodes a raw value into a plain Go value suitable for
// equality checks.
func decodedValue(rv bson.RawValue) any {
	var v any
	if err := bson.UnmarshalValue(rv.Type, rv.Value, &v); err != nil {
		return nil
	}
	return normalize(v)
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	}
	return v
}

func valueEqual(actual, expected any) bool {
	expected = normalize(expected)
	actual = normalize(actual)
	// An array field matches when any element equals, as mongo does.
	if arr, ok := actual.(bson.A); ok {
		if _, expectArr := expected.(bson.A); !expectArr {
			for _, elem := range arr {
				if valueEqual(elem, expected) {
					return true
				}
			}
			return false
		}
	}
	if a, ok := actual.(int64); ok {
		if b, ok := toInt64(expected); ok {
			return a == b
		}
	}
	return reflect.DeepEqual(actual, expected)
}

// compareValues orders two scalars; ok is false when they are
// incomparable, in which case every range operator evaluates false.
func compareValues(a, b any) (cmp int, ok bool) {
	a, b = normalize(a), normalize(b)
	if ai, ok := toInt64(a); ok {
		if bi, ok := toInt64(b); ok {
			switch {
			case ai < bi:
				return -1, true
			case ai > bi:
				return 1, true
			}
			return 0, true
		}
	}
	if af, ok := a.(float64); ok {
		if bf, ok := b.(float64); ok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			}
			return 0, true
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), true
		}
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	}
	return 0, false
}

func rawValueEqual(a, b bson.RawValue) bool {
	return a.Type == b.Type && bytes.Equal(a.Value, b.Value)
}
