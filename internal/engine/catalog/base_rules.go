package catalog

import "github.com/shopspring/decimal"

// BaseAvailabilityRules builds a full combination table in which a tuple is available exactly
// when every chosen option is base-available. Use it for products whose options carry no
// cross-dimension constraints; every combination shares one price.
func BaseAvailabilityRules(dimensions []VariantDimension, price, originalPrice decimal.Decimal, image string) []CombinationRule {
	var rules []CombinationRule

	var walk func(i int, acc Tuple, available bool)
	walk = func(i int, acc Tuple, available bool) {
		if i == len(dimensions) {
			rules = append(rules, CombinationRule{
				Tuple:         acc.Clone(),
				Available:     available,
				Price:         price,
				OriginalPrice: originalPrice,
				Image:         image,
			})
			return
		}
		dim := dimensions[i]
		for _, opt := range dim.Options {
			acc[dim.ID] = opt.ID
			walk(i+1, acc, available && opt.BaseAvailable)
		}
		delete(acc, dim.ID)
	}

	if len(dimensions) > 0 {
		walk(0, Tuple{}, true)
	}
	return rules
}
