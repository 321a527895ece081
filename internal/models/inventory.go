package models

type InventoryItem struct {
	SKU            string `json:"sku"`
	Style          string `json:"style"`
	Category       string `json:"category"`
	StyleNumber    string `json:"style_number"`
	Colour         string `json:"colour"`
	Size           string `json:"size"`
	Size2          string `json:"size_2"`
	UPC            string `json:"upc"`
	CategoryNumber string `json:"category_number"`
	SKUStatus      string `json:"sku_status"`
	InCatalog      bool   `json:"in_catalog"`
}
