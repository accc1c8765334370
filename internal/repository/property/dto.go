package property

import (
	"github.com/kailas-cloud/estatesearch/internal/db/elastic"
	"github.com/kailas-cloud/estatesearch/internal/domain/geo"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
	"github.com/kailas-cloud/estatesearch/internal/repository/esresult"
)

func toProperty(h *elastic.Hit, src esresult.Source) (result.Property, bool) {
	id := src.String("listing_id")
	if id == "" {
		id = h.ID
	}
	return result.Property{
		ListingID:    id,
		PropertyType: src.String("property_type"),
		Price:        src.Float("price"),
		Bedrooms:     src.Int("bedrooms"),
		Bathrooms:    src.Float("bathrooms"),
		SquareFeet:   src.Int("square_feet"),
		YearBuilt:    src.Int("year_built"),
		LotSize:      src.Float("lot_size"),
		Address: result.Address{
			Street:   src.String("address.street"),
			City:     src.String(FieldCity),
			State:    src.String(FieldState),
			ZipCode:  src.String(FieldZip),
			Location: src.GeoPoint(FieldLocation),
		},
		NeighborhoodID: src.String("neighborhood_id"),
		Description:    src.String("description"),
		Features:       src.Strings("features"),
		Amenities:      src.Strings("amenities"),
		ListingDate:    src.String("listing_date"),
		Status:         src.String("status"),
	}, true
}

// attachDistances sets distance_km on geo-sorted results from the sort value,
// falling back to the great-circle distance to the listing's own coordinates.
func attachDistances(items []result.Item[result.Property], hits []elastic.Hit, center geo.Point) {
	sortByID := make(map[string][]any, len(hits))
	for _, h := range hits {
		sortByID[h.ID] = h.Sort
	}
	for i := range items {
		if d := esresult.DistanceKm(sortByID[items[i].ID]); d != nil {
			items[i].DistanceKm = d
			continue
		}
		if loc := items[i].Document.Address.Location; loc != nil {
			d := center.DistanceKm(*loc)
			items[i].DistanceKm = &d
		}
	}
}
