package service

import "sort"

// DiffModuleRoster computes the set difference between a curriculum's module
// ids and a student's active enrollment module ids. toAdd holds curriculum
// modules the student is not enrolled in; toRemove holds enrollments whose
// module left the curriculum. Outputs are sorted for reproducibility.
func DiffModuleRoster(curriculumModuleIDs, activeModuleIDs []string) (toAdd, toRemove []string) {
	inCurriculum := make(map[string]struct{}, len(curriculumModuleIDs))
	for _, id := range curriculumModuleIDs {
		inCurriculum[id] = struct{}{}
	}
	enrolled := make(map[string]struct{}, len(activeModuleIDs))
	for _, id := range activeModuleIDs {
		enrolled[id] = struct{}{}
	}

	for id := range inCurriculum {
		if _, ok := enrolled[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for id := range enrolled {
		if _, ok := inCurriculum[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}

	sort.Strings(toAdd)
	sort.Strings(toRemove)
	return toAdd, toRemove
}
