package entity

import (
	"fmt"
	"slices"
)

type ProductType string

const (
	ProductE2W ProductType = "E2W"
	ProductL3G ProductType = "L3G"
	ProductL3P ProductType = "L3P"
	ProductL5G ProductType = "L5G"
	ProductL5P ProductType = "L5P"
	ProductICE ProductType = "ICE"
)

func AllProducts() []ProductType {
	return []ProductType{ProductE2W, ProductL3G, ProductL3P, ProductL5G, ProductL5P, ProductICE}
}

func (p ProductType) Valid() bool {
	return slices.Contains(AllProducts(), p)
}

// FilterItem is one checkbox row in a dashboard filter table.
type FilterItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Row   int    `json:"row"`
}

// FilterSelection is the set of checkboxes that must be active for a product.
type FilterSelection struct {
	Categories []FilterItem
	Fuels      []FilterItem
	Classes    []FilterItem
}

// FilterTable holds the per-product selections and the geometry of the
// checkbox tables they live in. Build it with NewFilterTable; it is not
// modified afterwards.
type FilterTable struct {
	categoryTable string
	fuelTable     string
	classTable    string
	fuelRows      int
	classRows     int
	selections    map[ProductType]FilterSelection
}

type FilterTableConfig struct {
	CategoryTable string
	FuelTable     string
	ClassTable    string
	FuelRows      int
	ClassRows     int
	Selections    map[ProductType]FilterSelection
}

func NewFilterTable(cfg FilterTableConfig) *FilterTable {
	selections := make(map[ProductType]FilterSelection, len(cfg.Selections))
	for p, s := range cfg.Selections {
		selections[p] = FilterSelection{
			Categories: slices.Clone(s.Categories),
			Fuels:      slices.Clone(s.Fuels),
			Classes:    slices.Clone(s.Classes),
		}
	}
	return &FilterTable{
		categoryTable: cfg.CategoryTable,
		fuelTable:     cfg.FuelTable,
		classTable:    cfg.ClassTable,
		fuelRows:      cfg.FuelRows,
		classRows:     cfg.ClassRows,
		selections:    selections,
	}
}

// Selection returns a copy of the checkbox set for product.
func (t *FilterTable) Selection(product ProductType) (FilterSelection, error) {
	s, ok := t.selections[product]
	if !ok {
		return FilterSelection{}, fmt.Errorf("%w: %s", ErrUnknownProduct, product)
	}
	return FilterSelection{
		Categories: slices.Clone(s.Categories),
		Fuels:      slices.Clone(s.Fuels),
		Classes:    slices.Clone(s.Classes),
	}, nil
}

func (t *FilterTable) CategoryTable() string { return t.categoryTable }
func (t *FilterTable) FuelTable() string     { return t.fuelTable }
func (t *FilterTable) ClassTable() string    { return t.classTable }

// FuelRows is the number of rows in the fuel table, numbered from 1.
func (t *FilterTable) FuelRows() int { return t.fuelRows }

// ClassRows is the number of rows in the vehicle class table, numbered from 1.
func (t *FilterTable) ClassRows() int { return t.classRows }

// CheckboxLocator and LabelLocator address a checkbox row inside a filter table.
func CheckboxLocator(table string, row int) string {
	return fmt.Sprintf("//*[@id='%s']/tbody/tr[%d]/td/div/div[2]/span", table, row)
}

func LabelLocator(table string, row int) string {
	return fmt.Sprintf("//*[@id='%s']/tbody/tr[%d]/td/label", table, row)
}

var (
	twoWheelerNT   = FilterItem{Key: "TWO_WHEELER_NT", Label: "TWO WHEELER(NT)", Row: 2}
	twoWheelerT    = FilterItem{Key: "TWO_WHEELER_T", Label: "TWO WHEELER(T)", Row: 3}
	threeWheelerNT = FilterItem{Key: "THREE_WHEELER_NT", Label: "THREE WHEELER(NT)", Row: 5}
	threeWheelerT  = FilterItem{Key: "THREE_WHEELER_T", Label: "THREE WHEELER(T)", Row: 6}

	fuelCNGOnly       = FilterItem{Key: "CNG_ONLY", Label: "CNG ONLY", Row: 4}
	fuelElectricBOV   = FilterItem{Key: "ELECTRIC_BOV", Label: "ELECTRIC(BOV)", Row: 11}
	fuelPetrol        = FilterItem{Key: "PETROL", Label: "PETROL", Row: 22}
	fuelPetrolCNG     = FilterItem{Key: "PETROL_CNG", Label: "PETROL/CNG", Row: 23}
	fuelPetrolEthanol = FilterItem{Key: "PETROL_ETHANOL", Label: "PETROL/ETHANOL", Row: 28}
	fuelPureEV        = FilterItem{Key: "PURE_EV", Label: "PURE EV", Row: 34}

	classMotorCycle    = FilterItem{Key: "M_CYCLE_SCOOTER", Label: "M-CYCLE/SCOOTER", Row: 1}
	classSideCar       = FilterItem{Key: "M_CYCLE_SCOOTER_SIDE_CAR", Label: "M-CYCLE/SCOOTER-WITH SIDE CAR", Row: 2}
	classMoped         = FilterItem{Key: "MOPED", Label: "MOPED", Row: 3}
	classERickshawCart = FilterItem{Key: "E_RICKSHAW_CART_G", Label: "E-RICKSHAW WITH CART(G)", Row: 37}
	classERickshawP    = FilterItem{Key: "E_RICKSHAW_P", Label: "E-RICKSHAW(P)", Row: 38}
	classThreeWheelerP = FilterItem{Key: "THREE_WHEELER_P", Label: "THREE WHEELER (PASSENGER)", Row: 40}
	classThreeWheelerG = FilterItem{Key: "THREE_WHEELER_G", Label: "THREE WHEELER (GOODS)", Row: 41}
)

// DefaultFilterTable returns the checkbox table of the Vahan dashboard.
func DefaultFilterTable() *FilterTable {
	twoWheelers := []FilterItem{twoWheelerNT, twoWheelerT}
	threeWheelers := []FilterItem{threeWheelerNT, threeWheelerT}
	evFuels := []FilterItem{fuelElectricBOV, fuelPureEV}
	iceFuels := []FilterItem{fuelCNGOnly, fuelPetrol, fuelPetrolCNG, fuelPetrolEthanol}
	scooters := []FilterItem{classMotorCycle, classSideCar, classMoped}

	return NewFilterTable(FilterTableConfig{
		CategoryTable: "VhCatg",
		FuelTable:     "fuel",
		ClassTable:    "VhClass",
		FuelRows:      34,
		ClassRows:     44,
		Selections: map[ProductType]FilterSelection{
			ProductE2W: {Categories: twoWheelers, Fuels: evFuels, Classes: scooters},
			ProductL3G: {Categories: threeWheelers, Fuels: evFuels, Classes: []FilterItem{classERickshawCart}},
			ProductL3P: {Categories: threeWheelers, Fuels: evFuels, Classes: []FilterItem{classERickshawP}},
			ProductL5G: {Categories: threeWheelers, Fuels: evFuels, Classes: []FilterItem{classThreeWheelerG}},
			ProductL5P: {Categories: threeWheelers, Fuels: evFuels, Classes: []FilterItem{classThreeWheelerP}},
			ProductICE: {Categories: twoWheelers, Fuels: iceFuels, Classes: scooters},
		},
	})
}
