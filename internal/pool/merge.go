package pool

// mergeBranches flattens the branch results in order and drops every
// item whose pool key was already seen. First insertion wins; later
// duplicates are dropped whole, never merged field by field.
func mergeBranches(branches ...[]RawItem) []RawItem {
	seen := make(map[string]struct{})
	var merged []RawItem

	for _, branch := range branches {
		for _, item := range branch {
			if _, dup := seen[item.Key]; dup {
				continue
			}
			seen[item.Key] = struct{}{}
			merged = append(merged, item)
		}
	}
	return merged
}
