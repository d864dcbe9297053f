package model

// CategoryCount is the number of records carrying one category value
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CountCategories counts records per distinct value, in the order of values.
// Records whose value is not listed are not counted.
func CountCategories(records []Record, column string, values []string) []CategoryCount {
	counts := make([]CategoryCount, len(values))
	slot := make(map[string]int, len(values))
	for i, v := range values {
		counts[i] = CategoryCount{Value: v}
		slot[v] = i
	}
	for _, r := range records {
		if i, ok := slot[r.Value(column)]; ok {
			counts[i].Count++
		}
	}
	return counts
}

// MaxCount returns the largest count, 0 for an empty list
func MaxCount(counts []CategoryCount) int {
	highest := 0
	for _, c := range counts {
		highest = max(highest, c.Count)
	}
	return highest
}
