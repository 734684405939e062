package parser

// BuildHierarchy assigns ParentIdx to each section in place. The parent is
// the most recently seen section with the highest level strictly below the
// section's own. Multiple H1s produce a forest of independent roots.
func BuildHierarchy(sections []Section) {
	// level -> index of the most recent section at that level
	lastSeen := map[int]int{}

	for i := range sections {
		sections[i].ParentIdx = -1
		for level := sections[i].Level - 1; level >= 1; level-- {
			if idx, ok := lastSeen[level]; ok {
				sections[i].ParentIdx = idx
				break
			}
		}
		lastSeen[sections[i].Level] = i
	}
}
