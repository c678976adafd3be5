package employee

import "fmt"

// Append returns existing followed by additions in a fresh slice, so the
// caller's fetched list is never aliased by the payload.
func Append[T any](existing, additions []T) []T {
	out := make([]T, 0, len(existing)+len(additions))
	out = append(out, existing...)
	out = append(out, additions...)
	return out
}

// RemoveAt returns a copy of list without the entry at idx.
func RemoveAt[T any](list []T, idx int) ([]T, error) {
	if idx < 0 || idx >= len(list) {
		return nil, fmt.Errorf("employee: index %d out of range (0..%d)", idx, len(list)-1)
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:idx]...)
	out = append(out, list[idx+1:]...)
	return out, nil
}

// SetPrimary marks drafts[k] as the primary contact and clears the flag on
// every other draft. Passing primary=false only clears drafts[k].
func SetPrimary(drafts []NextOfKinDraft, k int, primary bool) error {
	if k < 0 || k >= len(drafts) {
		return fmt.Errorf("employee: contact %d out of range", k)
	}
	if !primary {
		drafts[k].IsPrimary = false
		return nil
	}
	for i := range drafts {
		drafts[i].IsPrimary = i == k
	}
	return nil
}

// MergeNextOfKins appends the drafts to the stored contacts. When one of
// the drafts is primary the stored contacts lose their flag, so the merged
// list holds at most one primary contact.
func MergeNextOfKins(existing []NextOfKin, drafts []NextOfKinDraft) []NextOfKin {
	newPrimary := false
	additions := make([]NextOfKin, 0, len(drafts))
	for _, d := range drafts {
		if d.IsPrimary {
			newPrimary = true
		}
		additions = append(additions, d.NextOfKin)
	}
	merged := Append(existing, additions)
	if newPrimary {
		for i := range merged[:len(existing)] {
			merged[i].IsPrimary = false
		}
	}
	return merged
}

// PrimaryCount counts contacts flagged as primary.
func PrimaryCount(list []NextOfKin) int {
	n := 0
	for _, c := range list {
		if c.IsPrimary {
			n++
		}
	}
	return n
}
