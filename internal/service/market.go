package service

// MarketItem is one row of the supplement market listing.
type MarketItem struct {
	ClassIndex      int    `json:"class_index"`
	DiseaseName     string `json:"disease_name"`
	SupplementName  string `json:"supplement_name"`
	SupplementImage string `json:"supplement_image"`
	BuyLink         string `json:"buy_link"`
}

// MarketService lists the supplement of every catalog class.
type MarketService struct {
	catalog Catalog
}

func NewMarketService(cat Catalog) *MarketService {
	if cat == nil {
		panic("Catalog cannot be nil for MarketService")
	}
	return &MarketService{catalog: cat}
}

// Items follows catalog order.
func (s *MarketService) Items() []MarketItem {
	entries := s.catalog.Entries()
	items := make([]MarketItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, MarketItem{
			ClassIndex:      e.ClassIndex,
			DiseaseName:     e.DiseaseName,
			SupplementName:  e.Supplement.Name,
			SupplementImage: e.Supplement.ImageURL,
			BuyLink:         e.Supplement.BuyLink,
		})
	}
	return items
}
