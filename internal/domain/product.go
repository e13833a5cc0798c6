package domain

import "fmt"

// Product is a line item forwarded to the payment gateway. It is not
// persisted here.
type Product struct {
	Name      string
	Category  string
	UnitPrice float64
	Quantity  int
}

func NewProduct(name, category string, unitPrice float64, quantity int) (Product, error) {
	if name == "" {
		return Product{}, fmt.Errorf("product name must not be empty")
	}
	if unitPrice < 0 {
		return Product{}, fmt.Errorf("product %s: unit price must not be negative, got %v", name, unitPrice)
	}
	if quantity < 0 {
		return Product{}, fmt.Errorf("product %s: quantity must not be negative, got %d", name, quantity)
	}

	return Product{
		Name:      name,
		Category:  category,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}, nil
}

// TotalValue is the line total for this product.
func (p Product) TotalValue() float64 {
	return p.UnitPrice * float64(p.Quantity)
}
