package condusef

// Candidate key sets for each catalog the API serves. The probing algorithm
// is shared; only the key list differs per catalog.
var (
	MediaListKeys        = []string{"medios", "medio_recepcion", "results"}
	LevelListKeys        = []string{"niveles", "niveles_atencion", "results"}
	ProductListKeys      = []string{"products", "productos", "results"}
	CauseListKeys        = []string{"causas", "causes", "results"}
	StateListKeys        = []string{"estados", "states", "results"}
	PostalCodeListKeys   = []string{"codigos_postales", "cps", "results"}
	MunicipalityListKeys = []string{"municipios", "results"}
	NeighborhoodListKeys = []string{"colonias", "results"}
)

// ExtractList normalizes a loosely-shaped catalog response into the list of
// records it carries. In order: the value itself as a list; each candidate
// key at the top level; the same search under a "data" object; "data" as a
// list. Always returns a non-nil slice, never an error.
func ExtractList(v any, keys []string) []any {
	switch val := v.(type) {
	case []any:
		return val
	case map[string]any:
		if list := probeKeys(val, keys); list != nil {
			return list
		}
		switch data := val["data"].(type) {
		case map[string]any:
			if list := probeKeys(data, keys); list != nil {
				return list
			}
		case []any:
			return data
		}
	}
	return []any{}
}

// probeKeys returns the first non-empty list found under the candidate keys.
func probeKeys(m map[string]any, keys []string) []any {
	for _, k := range keys {
		if list, ok := m[k].([]any); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}
