package domain

// Kind tags a product type. Cart line items reference products by (kind, id).
type Kind string

const (
	KindRefrigerator Kind = "refrigerator"
	KindWasher       Kind = "washer"
	KindDishwasher   Kind = "dishwasher"
)

// KindInfo describes where a product kind lives and how it is presented.
type KindInfo struct {
	Kind         Kind
	CategorySlug string
	Table        string
	SpecColumn   string
	SpecLabel    string
}

var kinds = []KindInfo{
	{Kind: KindRefrigerator, CategorySlug: "refrigerators", Table: "refrigerators", SpecColumn: "volume_l", SpecLabel: "Volume, l"},
	{Kind: KindWasher, CategorySlug: "washers", Table: "washers", SpecColumn: "max_load_kg", SpecLabel: "Max load, kg"},
	{Kind: KindDishwasher, CategorySlug: "dishwashers", Table: "dishwashers", SpecColumn: "place_settings", SpecLabel: "Place settings"},
}

// Kinds returns the registry in display order.
func Kinds() []KindInfo {
	out := make([]KindInfo, len(kinds))
	copy(out, kinds)
	return out
}

// LookupKind resolves a kind tag as it appears in cart URLs.
func LookupKind(tag string) (KindInfo, bool) {
	for _, k := range kinds {
		if string(k.Kind) == tag {
			return k, true
		}
	}
	return KindInfo{}, false
}

// KindForCategory resolves a category slug to the kind it lists.
func KindForCategory(slug string) (KindInfo, bool) {
	for _, k := range kinds {
		if k.CategorySlug == slug {
			return k, true
		}
	}
	return KindInfo{}, false
}
