package models

import "github.com/shopspring/decimal"

const CartRecordVersion = 1

type Cart struct {
	Items []CartItem `json:"items"`
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartRecord is the persisted layout of a cart.
type CartRecord struct {
	Version int        `json:"version"`
	Items   []CartItem `json:"items"`
}
