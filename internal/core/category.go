package core

import (
	"fmt"
	"strings"
)

// Category is one of a fixed set of ledger categories.
type Category string

const (
	Consumption    Category = "consumption"
	Life           Category = "life"
	Miscellaneous  Category = "miscellaneous"
	Transportation Category = "transportation"
	Medical        Category = "medical"
	Communication  Category = "communication"
	Vehicle        Category = "vehicle"
	Entertainment  Category = "entertainment"
	Other          Category = "other"
)

type categoryInfo struct {
	name  string
	color string
}

// Display order is the order of this slice.
var categoryOrder = []Category{
	Consumption,
	Life,
	Miscellaneous,
	Transportation,
	Medical,
	Communication,
	Vehicle,
	Entertainment,
	Other,
}

var categoryInfos = map[Category]categoryInfo{
	Consumption:    {name: "Consumption", color: "#F4A261"},
	Life:           {name: "Life", color: "#2A9D8F"},
	Miscellaneous:  {name: "Miscellaneous", color: "#8D99AE"},
	Transportation: {name: "Transportation", color: "#457B9D"},
	Medical:        {name: "Medical", color: "#E63946"},
	Communication:  {name: "Communication", color: "#6D597A"},
	Vehicle:        {name: "Vehicle", color: "#264653"},
	Entertainment:  {name: "Entertainment", color: "#E9C46A"},
	Other:          {name: "Other", color: "#B5838D"},
}

// Categories returns every category in display order.
func Categories() []Category {
	return append([]Category(nil), categoryOrder...)
}

// ParseCategory validates a category coming from outside the process.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryInfos[c]
	return ok
}

func (c Category) DisplayName() string {
	return categoryInfos[c].name
}

// Color returns the hex color used for charts and badges.
func (c Category) Color() string {
	return categoryInfos[c].color
}

// Index returns the position in display order, or -1.
func (c Category) Index() int {
	for i, o := range categoryOrder {
		if o == c {
			return i
		}
	}
	return -1
}

func (c Category) String() string {
	return string(c)
}
