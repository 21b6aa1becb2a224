package entities

import "sort"

// RelationIndex is the sparse capability map: provider id → service id → set
// of location ids. A present (provider, service) key means the provider is
// capable of the service; a non-empty location set restricts where, an empty
// set means no fixed location constraint. An absent provider key means the
// provider offers nothing.
type RelationIndex map[uint]map[uint][]uint

func (r RelationIndex) HasService(providerID, serviceID uint) bool {
	services, ok := r[providerID]
	if !ok {
		return false
	}
	_, ok = services[serviceID]
	return ok
}

func (r RelationIndex) HasServiceLocation(providerID, serviceID, locationID uint) bool {
	services, ok := r[providerID]
	if !ok {
		return false
	}
	for _, id := range services[serviceID] {
		if id == locationID {
			return true
		}
	}
	return false
}

// HasLocation reports whether the provider works at the location for at
// least one of its services.
func (r RelationIndex) HasLocation(providerID, locationID uint) bool {
	for serviceID := range r[providerID] {
		if r.HasServiceLocation(providerID, serviceID, locationID) {
			return true
		}
	}
	return false
}

// Selection is a partial pick of the four browse dimensions; nil means the
// dimension is unconstrained.
type Selection struct {
	CategoryID *uint
	ServiceID  *uint
	ProviderID *uint
	LocationID *uint
}

// Resolved is the maximal jointly-satisfiable subset of each dimension. The
// id slices are sorted ascending.
type Resolved struct {
	ServiceIDs  []uint
	LocationIDs []uint
	ProviderIDs []uint
	CategoryIDs []uint
}

// Resolve computes, in a single pass over the relation index, which entity
// ids remain bookable under the given selection. categoryServices maps each
// category id to its member service ids. A contradictory selection resolves
// to all-empty sets; an empty selection yields everything reachable.
func Resolve(index RelationIndex, categoryServices map[uint][]uint, sel Selection) Resolved {
	var categoryServiceIDs []uint
	if sel.CategoryID != nil {
		categoryServiceIDs = categoryServices[*sel.CategoryID]
	}

	// Fail fast: an empty selected category, a (service, provider) pair not
	// in the index, or a (service, provider, location) triple not in the
	// index have no solutions.
	if (sel.CategoryID != nil && len(categoryServiceIDs) == 0) ||
		(sel.ServiceID != nil && sel.ProviderID != nil &&
			!index.HasService(*sel.ProviderID, *sel.ServiceID)) ||
		(sel.ServiceID != nil && sel.ProviderID != nil && sel.LocationID != nil &&
			!index.HasServiceLocation(*sel.ProviderID, *sel.ServiceID, *sel.LocationID)) {
		return Resolved{
			ServiceIDs:  []uint{},
			LocationIDs: []uint{},
			ProviderIDs: []uint{},
			CategoryIDs: []uint{},
		}
	}

	serviceSet := map[uint]struct{}{}
	locationSet := map[uint]struct{}{}
	providerSet := map[uint]struct{}{}

	inCategory := func(serviceID uint) bool {
		for _, id := range categoryServiceIDs {
			if id == serviceID {
				return true
			}
		}
		return false
	}

	for _, providerID := range sortedKeys(index) {
		if sel.ProviderID != nil && *sel.ProviderID != providerID {
			continue
		}
		if sel.LocationID != nil && !index.HasLocation(providerID, *sel.LocationID) {
			continue
		}
		if sel.ServiceID != nil && !index.HasService(providerID, *sel.ServiceID) {
			continue
		}
		if sel.CategoryID != nil {
			matched := false
			for _, serviceID := range categoryServiceIDs {
				if !index.HasService(providerID, serviceID) {
					continue
				}
				if sel.LocationID != nil &&
					!index.HasServiceLocation(providerID, serviceID, *sel.LocationID) {
					continue
				}
				matched = true
				break
			}
			if !matched {
				continue
			}
		}
		if sel.ServiceID != nil && sel.LocationID != nil &&
			!index.HasServiceLocation(providerID, *sel.ServiceID, *sel.LocationID) {
			continue
		}

		providerSet[providerID] = struct{}{}

		for _, serviceID := range sortedKeys(index[providerID]) {
			if sel.ServiceID != nil && *sel.ServiceID != serviceID {
				continue
			}
			if sel.CategoryID != nil && !inCategory(serviceID) {
				continue
			}
			if sel.LocationID != nil &&
				!index.HasServiceLocation(providerID, serviceID, *sel.LocationID) {
				continue
			}

			serviceSet[serviceID] = struct{}{}

			for _, locationID := range index[providerID][serviceID] {
				if sel.LocationID != nil && *sel.LocationID != locationID {
					continue
				}
				locationSet[locationID] = struct{}{}
			}
		}
	}

	// Categories survive when they own at least one surviving service.
	categorySet := map[uint]struct{}{}
	for categoryID, serviceIDs := range categoryServices {
		for _, serviceID := range serviceIDs {
			if _, ok := serviceSet[serviceID]; ok {
				categorySet[categoryID] = struct{}{}
				break
			}
		}
	}

	return Resolved{
		ServiceIDs:  setToSorted(serviceSet),
		LocationIDs: setToSorted(locationSet),
		ProviderIDs: setToSorted(providerSet),
		CategoryIDs: setToSorted(categorySet),
	}
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func setToSorted(set map[uint]struct{}) []uint {
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
