// Package catalog содержит каталог партнёров, принимающих баллы.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/carbonos/internal/model"
)

// AllCategories означает отсутствие фильтра по категории.
const AllCategories = "all"

var sampleBusinesses = []model.Business{
	{
		ID:                      "biz_001",
		Name:                    "Green Thread Clothing",
		Category:                "fashion",
		Sustainable:             true,
		Description:             "100% organic cotton, carbon-neutral shipping",
		Location:                "Downtown",
		SustainabilityPractices: "Zero-waste packaging, renewable energy powered",
		Logo:                    "👕",
		Coupons: []model.CouponOffer{
			{Points: 15, Discount: "10% off", Tier: model.TierBronze},
			{Points: 30, Discount: "15% off", Tier: model.TierSilver},
			{Points: 50, Discount: "25% off", Tier: model.TierGold},
		},
	},
	{
		ID:                      "biz_002",
		Name:                    "Sprout Organic Cafe",
		Category:                "food",
		Sustainable:             true,
		Description:             "Farm-to-table organic meals, compostable packaging",
		Location:                "City Center",
		SustainabilityPractices: "Local sourcing, zero food waste program",
		Logo:                    "🌱",
		Coupons: []model.CouponOffer{
			{Points: 15, Discount: "10% off meal", Tier: model.TierBronze},
			{Points: 30, Discount: "Free coffee with meal", Tier: model.TierSilver},
			{Points: 50, Discount: "20% off", Tier: model.TierGold},
		},
	},
	{
		ID:                      "biz_003",
		Name:                    "EcoCycle Bike Shop",
		Category:                "transport",
		Sustainable:             true,
		Description:             "Bike repairs, refurbished bikes, eco-friendly accessories",
		Location:                "Northside",
		SustainabilityPractices: "Bike recycling program, solar-powered workshop",
		Logo:                    "🚴",
		Coupons: []model.CouponOffer{
			{Points: 20, Discount: "Free bike tune-up", Tier: model.TierBronze},
			{Points: 40, Discount: "15% off accessories", Tier: model.TierSilver},
			{Points: 100, Discount: "30% off refurbished bike", Tier: model.TierGold},
		},
	},
	{
		ID:                      "biz_004",
		Name:                    "Refill Station",
		Category:                "household",
		Sustainable:             true,
		Description:             "Package-free cleaning products, personal care items",
		Location:                "West End",
		SustainabilityPractices: "Zero plastic packaging, bulk refills only",
		Logo:                    "🧴",
		Coupons: []model.CouponOffer{
			{Points: 10, Discount: "10% off refills", Tier: model.TierBronze},
			{Points: 25, Discount: "Free reusable container", Tier: model.TierSilver},
			{Points: 50, Discount: "20% off entire purchase", Tier: model.TierGold},
		},
	},
	{
		ID:                      "biz_005",
		Name:                    "Solar Sips Coffee",
		Category:                "food",
		Sustainable:             true,
		Description:             "Fair-trade coffee, 100% renewable energy powered",
		Location:                "Downtown",
		SustainabilityPractices: "Compostable cups, solar panels on roof",
		Logo:                    "☕",
		Coupons: []model.CouponOffer{
			{Points: 12, Discount: "Free pastry with coffee", Tier: model.TierBronze},
			{Points: 25, Discount: "15% off", Tier: model.TierSilver},
			{Points: 45, Discount: "Free drink on us", Tier: model.TierGold},
		},
	},
	{
		ID:                      "biz_006",
		Name:                    "Thrift Haven",
		Category:                "fashion",
		Sustainable:             true,
		Description:             "Second-hand clothing, vintage finds, upcycled fashion",
		Location:                "South District",
		SustainabilityPractices: "Circular economy, clothing donation program",
		Logo:                    "👗",
		Coupons: []model.CouponOffer{
			{Points: 15, Discount: "15% off", Tier: model.TierBronze},
			{Points: 35, Discount: "25% off", Tier: model.TierSilver},
			{Points: 60, Discount: "Buy 2 Get 1 Free", Tier: model.TierGold},
		},
	},
}

// Default возвращает копию встроенного каталога партнёров.
func Default() []model.Business {
	res := make([]model.Business, len(sampleBusinesses))
	for i, b := range sampleBusinesses {
		b.Coupons = append([]model.CouponOffer(nil), b.Coupons...)
		res[i] = b
	}
	return res
}

type catalogFile struct {
	Businesses []model.Business `yaml:"businesses"`
}

// LoadFile читает каталог партнёров из YAML-файла.
func LoadFile(path string) ([]model.Business, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if len(f.Businesses) == 0 {
		return nil, fmt.Errorf("catalog has no businesses defined")
	}

	seen := make(map[string]struct{}, len(f.Businesses))
	for _, b := range f.Businesses {
		if b.ID == "" {
			return nil, fmt.Errorf("business %q: id is required", b.Name)
		}
		if _, ok := seen[b.ID]; ok {
			return nil, fmt.Errorf("business %q: duplicate id", b.ID)
		}
		seen[b.ID] = struct{}{}

		for _, c := range b.Coupons {
			if c.Points <= 0 {
				return nil, fmt.Errorf("business %q: offer %q must cost a positive number of points", b.ID, c.Discount)
			}
		}
	}

	return f.Businesses, nil
}

// FilterByCategory возвращает партнёров указанной категории. Пустая категория или "all" возвращает всех партнёров.
func FilterByCategory(businesses []model.Business, category string) []model.Business {
	if category == "" || category == AllCategories {
		return businesses
	}

	res := make([]model.Business, 0, len(businesses))
	for _, b := range businesses {
		if b.Category == category {
			res = append(res, b)
		}
	}
	return res
}

// Categories возвращает "all" и уникальные категории партнёров в порядке первого появления.
func Categories(businesses []model.Business) []string {
	res := []string{AllCategories}
	seen := make(map[string]struct{})
	for _, b := range businesses {
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		res = append(res, b.Category)
	}
	return res
}

// Find ищет партнёра по идентификатору.
func Find(businesses []model.Business, id string) (model.Business, bool) {
	for _, b := range businesses {
		if b.ID == id {
			return b, true
		}
	}
	return model.Business{}, false
}

// FindOffer ищет предложение партнёра по стоимости в баллах.
func FindOffer(b model.Business, points int) (model.CouponOffer, bool) {
	for _, c := range b.Coupons {
		if c.Points == points {
			return c, true
		}
	}
	return model.CouponOffer{}, false
}
