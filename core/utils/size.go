package utils

import "reflect"

// Sizeof returns an approximate in-memory byte size for v.
// It is used for cache and dataset accounting, where a rough but stable
// estimate is enough; it is not a precise allocation count.
func Sizeof(v any) int64 {
	return sizeofValue(reflect.ValueOf(v), 0)
}

const maxSizeofDepth = 8

func sizeofValue(rv reflect.Value, depth int) int64 {
	if !rv.IsValid() || depth > maxSizeofDepth {
		return 0
	}
	switch rv.Kind() {
	case reflect.String:
		return int64(16 + len(rv.String()))
	case reflect.Slice, reflect.Array:
		size := int64(24)
		for i := 0; i < rv.Len(); i++ {
			size += sizeofValue(rv.Index(i), depth+1)
		}
		return size
	case reflect.Map:
		size := int64(48)
		iter := rv.MapRange()
		for iter.Next() {
			size += sizeofValue(iter.Key(), depth+1)
			size += sizeofValue(iter.Value(), depth+1)
		}
		return size
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return 8
		}
		return 8 + sizeofValue(rv.Elem(), depth+1)
	case reflect.Struct:
		size := int64(0)
		for i := 0; i < rv.NumField(); i++ {
			size += sizeofValue(rv.Field(i), depth+1)
		}
		return size
	case reflect.Bool:
		return 1
	default:
		return 8
	}
}
