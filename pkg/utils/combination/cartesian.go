package combination

import "github.com/vtonlab/vtonds/pkg/utils"

// MapCartesian picks one item for each key of basis and generates all the
// combinations (cartesian product).
//
// # Example
//
//	MapCartesian(map[string][]string{
//		"difficulty": {"easy", "hard"},
//		"gender":     {"female", "male"},
//	})
//
// generates ("difficulty" × "gender") as below (in no particular order).
//
//	[]map[string]string{
//		{"difficulty": "easy", "gender": "female"},
//		{"difficulty": "easy", "gender": "male"},
//		{"difficulty": "hard", "gender": "female"},
//		{"difficulty": "hard", "gender": "male"},
//	}
//
// # Args
//
// - basis : basis of cartesian product.
//
// # Returns
//
// - []map[K]V : Each item has same keys in basis.
// For each key for each item, the value is one of basis[key].
//
// When basis is empty or any of its dimensions is empty, the product is empty.
func MapCartesian[K comparable, V any](basis map[K][]V) []map[K]V {
	dims := len(basis)
	if dims == 0 {
		return []map[K]V{}
	}

	keys := make([]K, 0, dims)
	for k, p := range basis {
		if len(p) == 0 {
			return []map[K]V{}
		}
		keys = append(keys, k)
	}

	var cartesian func(known []map[K]V, rem []K) []map[K]V
	cartesian = func(known []map[K]V, rem []K) []map[K]V {
		if len(rem) <= 0 {
			return known
		}

		topic := rem[0]
		grown := make([]map[K]V, 0, len(known)*len(basis[topic]))

		for _, item := range basis[topic] {
			clone := utils.Map(known, mapCopy[K, V])
			for i := range clone {
				clone[i][topic] = item
			}
			grown = append(grown, clone...)
		}

		return cartesian(grown, rem[1:])
	}

	seed := keys[0]
	known := utils.Map(basis[seed], func(item V) map[K]V {
		return map[K]V{seed: item}
	})

	return cartesian(known, keys[1:])
}

func mapCopy[K comparable, V any](base map[K]V) map[K]V {
	c := make(map[K]V, len(base))
	for k := range base {
		c[k] = base[k]
	}
	return c
}
