package constants

import "strings"

// Category is a spending category assigned to documents and line items.
// Categorization is strictly downstream of extraction: it reads the extracted
// vendor/text/descriptions and never influences what gets extracted.
type Category string

// Document-level categories.
const (
	ITSoftware      Category = "IT & Software"
	Marketing       Category = "Marketing & Advertising"
	Utilities       Category = "Utilities"
	Travel          Category = "Travel & Entertainment"
	OfficeSupplies  Category = "Office Supplies"
	GroceryItems    Category = "Grocery Items"
	MeatPoultry     Category = "Meat & Poultry"
	Seafood         Category = "Seafood"
	DairyEggs       Category = "Dairy & Eggs"
	SnacksBeverages Category = "Snacks & Beverages"
	FruitsVeg       Category = "Fruits & Vegetables"
	Bakery          Category = "Bakery"
	FrozenFoods     Category = "Frozen Foods"
	Other           Category = "Other"
)

// DocumentCategories are the categories assignable to a whole document.
var DocumentCategories = []Category{
	ITSoftware, Marketing, Utilities, Travel, OfficeSupplies, Other,
}

// LineItemCategories are the categories assignable to individual line items.
var LineItemCategories = []Category{
	MeatPoultry, Seafood, DairyEggs, SnacksBeverages,
	FruitsVeg, Bakery, FrozenFoods, GroceryItems,
}

var documentKeywords = []struct {
	cat      Category
	keywords []string
}{
	{ITSoftware, []string{"aws", "azure", "google cloud", "microsoft", "adobe", "software", "saas"}},
	{Marketing, []string{"facebook", "google ads", "linkedin", "marketing", "advertising"}},
	{Utilities, []string{"electric", "water", "internet", "telecom", "utility"}},
	{Travel, []string{"hotel", "airline", "uber", "taxi", "travel"}},
	{OfficeSupplies, []string{"office", "supplies", "stationery", "paper"}},
}

var lineItemKeywords = []struct {
	cat      Category
	keywords []string
}{
	{MeatPoultry, []string{"chicken", "beef", "pork", "sausage", "meat", "mutton", "lamb"}},
	{Seafood, []string{"fish", "mackerel", "tuna", "salmon", "seafood", "prawn", "crab", "shrimp"}},
	{DairyEggs, []string{"egg", "milk", "cheese", "yogurt", "curd", "dairy", "butter", "cream"}},
	{SnacksBeverages, []string{"chips", "snack", "biscuit", "cookie", "beverage", "drink", "juice", "soda"}},
	{FruitsVeg, []string{"fruit", "vegetable", "apple", "banana", "carrot", "beans", "tomato", "potato"}},
	{Bakery, []string{"bread", "cake", "pastry", "bakery", "bun", "roll"}},
	{FrozenFoods, []string{"frozen", "ice cream", "popsicle"}},
}

// CategorizeDocument assigns a category from the extracted vendor name and raw
// text using keyword matching. Returns Other when nothing matches.
func CategorizeDocument(vendor, text string) Category {
	vendorLower := strings.ToLower(vendor)
	textLower := strings.ToLower(text)
	for _, entry := range documentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(vendorLower, kw) || strings.Contains(textLower, kw) {
				return entry.cat
			}
		}
	}
	return Other
}

// CategorizeLineItem assigns a category to a single line item from its
// description. Defaults to GroceryItems.
func CategorizeLineItem(description string) Category {
	descLower := strings.ToLower(description)
	for _, entry := range lineItemKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(descLower, kw) {
				return entry.cat
			}
		}
	}
	return GroceryItems
}
