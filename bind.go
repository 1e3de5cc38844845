package docmorph

import (
	"reflect"

	"github.com/docmorph/docmorph.go/pkg/refs"
)

// bindValue walks a decoded value and attaches the datastore as
// resolver to every reference wrapper it reaches, including wrappers
// inside inline structs, slices and map values. The walk stops at a
// wrapper: its internals are its own.
func (ds *Datastore) bindValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return
		}
		if binder, ok := v.Interface().(refs.Binder); ok {
			binder.Bind(ds)
			return
		}
		ds.bindValue(v.Elem())
	case reflect.Struct:
		if v.CanAddr() {
			if binder, ok := v.Addr().Interface().(refs.Binder); ok {
				binder.Bind(ds)
				return
			}
		}
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			ds.bindValue(v.Field(i))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			ds.bindValue(v.Index(i))
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			ds.bindValue(iter.Value())
		}
	}
}
