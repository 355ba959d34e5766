package settings

// Merge combines two values with higher taking precedence. Objects merge key
// by key, recursively; any other combination yields higher unchanged.
// Neither input is modified.
func Merge(lower, higher Value) Value {
	if lower.kind != KindObject || higher.kind != KindObject {
		return higher
	}

	out := make(map[string]Value, len(lower.obj)+len(higher.obj))
	for k, v := range lower.obj {
		out[k] = v
	}
	for k, hv := range higher.obj {
		if lv, ok := out[k]; ok {
			out[k] = Merge(lv, hv)
			continue
		}
		out[k] = hv
	}

	return Value{kind: KindObject, obj: out}
}

// MergeAll folds values from lowest to highest precedence onto an empty object.
func MergeAll(values ...Value) Value {
	result := EmptyObject()
	for _, v := range values {
		result = Merge(result, v)
	}
	return result
}
