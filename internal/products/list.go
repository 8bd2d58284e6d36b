package product

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []ProductDTO `json:"products"`
}

func newListResult(items []ProductDTO) *ProductListResult {
	if items == nil {
		items = []ProductDTO{}
	}
	return &ProductListResult{Products: items}
}
