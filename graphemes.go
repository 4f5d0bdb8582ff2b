package vtcore

import "github.com/rivo/uniseg"

// graphemeClusters splits s into user-perceived characters, used by
// SelectWord so that a flag emoji or skin-tone modifier sequence is not
// cut in the middle.
func graphemeClusters(s string) []string {
	var out []string
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		out = append(out, cluster)
	}
	return out
}

// graphemeCount returns the number of user-perceived characters in s,
// used by SelectLine to report the selection's length in terms a user
// would recognize as "characters" rather than bytes or runes.
func graphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
