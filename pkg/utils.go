package pkg

func Filter[T any](items []T, predicate func(T) bool) []T {
	filtered := []T{}
	for _, item := range items {
		if predicate(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Converts a value suspected to be either an int or float64 to an int.
// JSON decoding turns every number into a float64, so request handlers
// need this when pulling RIDs and heap indices out of decoded payloads.
func NumToInt(num any) int {
	switch num := num.(type) {
	case int:
		return num
	case float64:
		return int(num)
	}
	return 0
}

// Align4 returns n rounded up to the next multiple of 4.
func Align4(n int) int {
	return (n + 3) &^ 3
}
