package webdriver

// Serializer converts handles to wire references and back.
// Serialize is applied to every node of a request body, parents before children.
// Deserialize is applied to every node of a decoded response, children before parents.
// Both return the node unchanged when they have nothing to convert.
type Serializer interface {
	Serialize(v any) any
	Deserialize(v any) any
}

// serializeTree rebuilds v with s.Serialize applied top-down.
// Only generic JSON trees (map[string]any and []any) are descended into;
// typed values are left to their MarshalJSON.
func serializeTree(v any, s Serializer) any {
	v = s.Serialize(v)
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = serializeTree(e, s)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = serializeTree(e, s)
		}
		return out
	}
	return v
}

// deserializeTree applies s.Deserialize bottom-up to a tree decoded by encoding/json.
// The tree is modified in place.
func deserializeTree(v any, s Serializer) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = deserializeTree(e, s)
		}
	case []any:
		for i, e := range t {
			t[i] = deserializeTree(e, s)
		}
	}
	return s.Deserialize(v)
}
