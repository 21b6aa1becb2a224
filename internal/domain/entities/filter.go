package entities

import "github.com/appointly/scheduler/internal/models"

// Snapshot is the full current entity state handed to the resolver in one
// piece; the core never fetches partial slices.
type Snapshot struct {
	Providers  []models.Provider  `json:"employees"`
	Categories []models.Category  `json:"categories"`
	Locations  []models.Location  `json:"locations"`
	Packages   []models.Package   `json:"packages"`
	Relations  RelationIndex      `json:"entities_relations"`
	Settings   map[string]string  `json:"settings"`
	Tags       []string           `json:"tags"`
}

// FilterOptions controls the second filtering stage.
type FilterOptions struct {
	// Packages are validated and attached only when requested; plain service
	// browsing skips package logic entirely.
	IncludePackages bool
}

// Filtered is the subset of the snapshot that remains bookable and visible
// for a selection.
type Filtered struct {
	Providers  []models.Provider `json:"employees"`
	Services   []models.Service  `json:"services"`
	Categories []models.Category `json:"categories"`
	Locations  []models.Location `json:"locations"`
	Packages   []models.Package  `json:"packages"`
}

// CategoryServices extracts the category → member-service-ids map the
// resolver needs.
func CategoryServices(categories []models.Category) map[uint][]uint {
	out := make(map[uint][]uint, len(categories))
	for _, category := range categories {
		ids := make([]uint, 0, len(category.Services))
		for _, service := range category.Services {
			ids = append(ids, service.ID)
		}
		out[category.ID] = ids
	}
	return out
}

// Filter resolves the selection against the relation index and then restricts
// each entity list to resolved ids that are also individually visible.
// Relation presence and visibility are independent gates: a relation-present
// entity still drops out when its own status is hidden.
func Filter(snap *Snapshot, sel Selection, opts FilterOptions) Filtered {
	resolved := Resolve(snap.Relations, CategoryServices(snap.Categories), sel)

	serviceIDs := toSet(resolved.ServiceIDs)
	providerIDs := toSet(resolved.ProviderIDs)
	locationIDs := toSet(resolved.LocationIDs)
	categoryIDs := toSet(resolved.CategoryIDs)

	out := Filtered{
		Providers:  []models.Provider{},
		Services:   []models.Service{},
		Categories: []models.Category{},
		Locations:  []models.Location{},
		Packages:   []models.Package{},
	}

	for _, provider := range snap.Providers {
		if _, ok := providerIDs[provider.ID]; ok && provider.Status == models.StatusVisible {
			out.Providers = append(out.Providers, provider)
		}
	}

	for _, category := range snap.Categories {
		if _, ok := categoryIDs[category.ID]; !ok {
			continue
		}
		kept := category
		kept.Services = nil
		for _, service := range category.Services {
			if _, ok := serviceIDs[service.ID]; ok && service.Status == models.StatusVisible {
				kept.Services = append(kept.Services, service)
				out.Services = append(out.Services, service)
			}
		}
		if len(kept.Services) > 0 {
			out.Categories = append(out.Categories, kept)
		}
	}

	for _, location := range snap.Locations {
		if _, ok := locationIDs[location.ID]; ok && location.Status == models.StatusVisible {
			out.Locations = append(out.Locations, location)
		}
	}

	if opts.IncludePackages {
		out.Packages = filterPackages(snap, out)
	}

	return out
}

// filterPackages keeps a package only when every line item stays satisfiable:
// the line service survived filtering, and any pinned providers/locations
// still form a valid (provider, service, location) triple in the relation
// index. One dead mandatory line item drops the whole package.
func filterPackages(snap *Snapshot, filtered Filtered) []models.Package {
	availableServices := map[uint]struct{}{}
	for _, service := range filtered.Services {
		availableServices[service.ID] = struct{}{}
	}
	availableProviders := map[uint]struct{}{}
	for _, provider := range filtered.Providers {
		availableProviders[provider.ID] = struct{}{}
	}
	availableLocations := map[uint]struct{}{}
	for _, location := range filtered.Locations {
		availableLocations[location.ID] = struct{}{}
	}

	kept := []models.Package{}

	for _, pack := range snap.Packages {
		if pack.Status != models.StatusVisible {
			continue
		}

		anyServiceAvailable := false
		for _, bookable := range pack.Bookables {
			if _, ok := availableServices[bookable.ServiceID]; ok {
				anyServiceAvailable = true
				break
			}
		}
		if !anyServiceAvailable {
			continue
		}

		alive := true
		packCopy := pack
		packCopy.Bookables = make([]models.PackageBookable, 0, len(pack.Bookables))

		for _, bookable := range pack.Bookables {
			line := bookable

			if len(bookable.Providers) > 0 {
				line.Providers = nil
				for _, provider := range bookable.Providers {
					if _, ok := availableProviders[provider.ID]; !ok {
						continue
					}
					if !providerServesLine(snap.Relations, provider.ID, bookable, availableLocations) {
						continue
					}
					line.Providers = append(line.Providers, provider)
				}
				if len(line.Providers) == 0 {
					alive = false
					break
				}
			}

			if len(bookable.Locations) > 0 {
				line.Locations = nil
				for _, location := range bookable.Locations {
					if _, ok := availableLocations[location.ID]; !ok {
						continue
					}
					if !locationServesLine(snap.Relations, location.ID, bookable, line.Providers, filtered.Providers) {
						continue
					}
					line.Locations = append(line.Locations, location)
				}
				if len(line.Locations) == 0 {
					alive = false
					break
				}
			}

			packCopy.Bookables = append(packCopy.Bookables, line)
		}

		if alive {
			kept = append(kept, packCopy)
		}
	}

	return kept
}

func providerServesLine(
	index RelationIndex,
	providerID uint,
	bookable models.PackageBookable,
	availableLocations map[uint]struct{},
) bool {
	if len(bookable.Locations) > 0 {
		for _, location := range bookable.Locations {
			if index.HasServiceLocation(providerID, bookable.ServiceID, location.ID) {
				return true
			}
		}
		return false
	}
	if len(availableLocations) == 0 {
		// No location dimension in play; capability alone qualifies.
		return index.HasService(providerID, bookable.ServiceID)
	}
	for locationID := range availableLocations {
		if index.HasServiceLocation(providerID, bookable.ServiceID, locationID) {
			return true
		}
	}
	return false
}

func locationServesLine(
	index RelationIndex,
	locationID uint,
	bookable models.PackageBookable,
	pinnedProviders []models.Provider,
	fallbackProviders []models.Provider,
) bool {
	providers := pinnedProviders
	if len(providers) == 0 {
		providers = fallbackProviders
	}
	for _, provider := range providers {
		if index.HasServiceLocation(provider.ID, bookable.ServiceID, locationID) {
			return true
		}
	}
	return false
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
