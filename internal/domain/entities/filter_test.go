package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appointly/scheduler/internal/models"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Providers: []models.Provider{
			{ID: 1, Status: models.StatusVisible},
			{ID: 2, Status: models.StatusVisible},
			{ID: 3, Status: models.StatusHidden},
		},
		Categories: []models.Category{
			{ID: 5, Services: []models.Service{
				{ID: 10, CategoryID: 5, Status: models.StatusVisible},
				{ID: 12, CategoryID: 5, Status: models.StatusHidden},
			}},
			{ID: 6, Services: []models.Service{
				{ID: 11, CategoryID: 6, Status: models.StatusVisible},
			}},
		},
		Locations: []models.Location{
			{ID: 100, Status: models.StatusVisible},
			{ID: 101, Status: models.StatusVisible},
		},
		Relations: RelationIndex{
			1: {10: {100, 101}, 11: {100}, 12: {100}},
			2: {11: {}},
			3: {10: {100}},
		},
	}
}

func TestFilter_HiddenEntitiesDropDespiteRelations(t *testing.T) {
	got := Filter(testSnapshot(), Selection{}, FilterOptions{})

	providerIDs := make([]uint, 0, len(got.Providers))
	for _, p := range got.Providers {
		providerIDs = append(providerIDs, p.ID)
	}
	assert.Equal(t, []uint{1, 2}, providerIDs)

	serviceIDs := make([]uint, 0, len(got.Services))
	for _, s := range got.Services {
		serviceIDs = append(serviceIDs, s.ID)
	}
	// Service 12 is relation-present but hidden.
	assert.Equal(t, []uint{10, 11}, serviceIDs)
}

func TestFilter_CategoriesKeepOnlySurvivingServices(t *testing.T) {
	got := Filter(testSnapshot(), Selection{CategoryID: ptr(5)}, FilterOptions{})

	require.Len(t, got.Categories, 1)
	require.Len(t, got.Categories[0].Services, 1)
	assert.Equal(t, uint(10), got.Categories[0].Services[0].ID)
}

func TestFilter_SelectionNarrowsLocations(t *testing.T) {
	got := Filter(testSnapshot(), Selection{ServiceID: ptr(11)}, FilterOptions{})

	require.Len(t, got.Locations, 1)
	assert.Equal(t, uint(100), got.Locations[0].ID)
}

func TestFilter_PackagesExcludedByDefault(t *testing.T) {
	snap := testSnapshot()
	snap.Packages = []models.Package{
		{ID: 40, Status: models.StatusVisible, Bookables: []models.PackageBookable{
			{ServiceID: 10},
		}},
	}

	got := Filter(snap, Selection{}, FilterOptions{})
	assert.Empty(t, got.Packages)

	got = Filter(snap, Selection{}, FilterOptions{IncludePackages: true})
	assert.Len(t, got.Packages, 1)
}

func TestFilter_PackageDropsWhenPinnedProviderUnsatisfiable(t *testing.T) {
	snap := testSnapshot()
	snap.Packages = []models.Package{
		// Pinned to the hidden provider 3: the line item cannot be satisfied.
		{ID: 40, Status: models.StatusVisible, Bookables: []models.PackageBookable{
			{ServiceID: 10, Providers: []models.Provider{{ID: 3}}},
		}},
		// Pinned to provider 1, which serves service 10: survives.
		{ID: 41, Status: models.StatusVisible, Bookables: []models.PackageBookable{
			{ServiceID: 10, Providers: []models.Provider{{ID: 1}}},
		}},
		// Hidden packages never surface.
		{ID: 42, Status: models.StatusHidden, Bookables: []models.PackageBookable{
			{ServiceID: 10},
		}},
	}

	got := Filter(snap, Selection{}, FilterOptions{IncludePackages: true})

	require.Len(t, got.Packages, 1)
	assert.Equal(t, uint(41), got.Packages[0].ID)
}
