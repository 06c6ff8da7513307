package entity

// ExpenseLineItem is one row of an expense claim
type ExpenseLineItem struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Merchant      string  `json:"merchant"`
	VendorAddress string  `json:"vendor_address"`
	PaymentMethod string  `json:"payment_method"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	TaxAmount     float64 `json:"tax_amount"`
	Currency      string  `json:"currency"`
	IsRecurring   bool    `json:"is_recurring"`
}

// ItemField names an editable ExpenseLineItem field. Values match the JSON keys.
type ItemField string

const (
	ItemFieldDate          ItemField = "date"
	ItemFieldMerchant      ItemField = "merchant"
	ItemFieldVendorAddress ItemField = "vendor_address"
	ItemFieldPaymentMethod ItemField = "payment_method"
	ItemFieldDescription   ItemField = "description"
	ItemFieldCategory      ItemField = "category"
	ItemFieldAmount        ItemField = "amount"
	ItemFieldTaxAmount     ItemField = "tax_amount"
	ItemFieldCurrency      ItemField = "currency"
	ItemFieldIsRecurring   ItemField = "is_recurring"
)

// IsNumeric reports whether the field holds a money amount
func (f ItemField) IsNumeric() bool {
	return f == ItemFieldAmount || f == ItemFieldTaxAmount
}
