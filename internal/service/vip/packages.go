package vip

// LifetimeDays is the reserved "days" value meaning the subscription never
// expires. It is stored as a null expiry, never as a far-future timestamp.
const LifetimeDays = 999999

// Package is a purchasable VIP bundle. Every package also credits bonus
// stars on activation.
type Package struct {
	Name       string
	Days       int
	BonusStars int64
	Price      int64
}

// Packages are the sellable VIP bundles, keyed by package type.
var Packages = map[string]Package{
	"7days":    {Name: "1 week", Days: 7, BonusStars: 10, Price: 10},
	"1month":   {Name: "1 month", Days: 30, BonusStars: 30, Price: 30},
	"3months":  {Name: "3 months", Days: 90, BonusStars: 60, Price: 60},
	"12months": {Name: "1 year", Days: 365, BonusStars: 200, Price: 200},
	"lifetime": {Name: "Lifetime", Days: LifetimeDays, BonusStars: 1000, Price: 1000},
}

// CurrencyPackage is a purchasable stars or boosts bundle.
type CurrencyPackage struct {
	Name   string
	Stars  int64
	Boosts int64
	Price  int64
}

// CurrencyPackages are the sellable currency bundles, keyed by package type.
var CurrencyPackages = map[string]CurrencyPackage{
	"stars_50":   {Name: "50 stars", Stars: 50, Price: 5},
	"stars_150":  {Name: "150 stars", Stars: 150, Price: 12},
	"stars_500":  {Name: "500 stars", Stars: 500, Price: 35},
	"boosts_5":   {Name: "5 boosts", Boosts: 5, Price: 5},
	"boosts_15":  {Name: "15 boosts", Boosts: 15, Price: 12},
}
