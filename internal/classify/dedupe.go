package classify

// Partition splits candidate version ids for an "add to repertoire" flow
type Partition struct {
	Addable      []int
	AlreadyAdded []int
}

// DedupeAgainstExisting partitions candidates into ids not yet present and ids
// already present. Candidate order is preserved and repeated candidates are
// reported once.
func DedupeAgainstExisting(candidates, alreadyPresent []int) Partition {
	present := make(map[int]struct{}, len(alreadyPresent))
	for _, id := range alreadyPresent {
		present[id] = struct{}{}
	}

	p := Partition{
		Addable:      make([]int, 0, len(candidates)),
		AlreadyAdded: make([]int, 0),
	}
	seen := make(map[int]struct{}, len(candidates))
	for _, id := range candidates {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, ok := present[id]; ok {
			p.AlreadyAdded = append(p.AlreadyAdded, id)
		} else {
			p.Addable = append(p.Addable, id)
		}
	}
	return p
}
