package entity

// Invoice is the structured JSON upload format. It mirrors the invoice
// export of the billing system, so field names follow its wire casing.
type Invoice struct {
	BillDate    string       `json:"billDate"`
	BillNo      string       `json:"billNo"`
	AmountDue   float64      `json:"amountDue"`
	ExtraCharge float64      `json:"extraCharge"`
	TaxItems    []TaxItem    `json:"taxItem,omitempty"`
	Subscribers []Subscriber `json:"subscribers,omitempty"`
}

// TaxItem is one tax line of an invoice.
type TaxItem struct {
	Cat string  `json:"cat"`
	Amt float64 `json:"amt"`
}

// Subscriber groups the charge summary of one logical resource (a phone
// number or service line) on the invoice.
type Subscriber struct {
	LogicalResource  string            `json:"logicalResource"`
	BillSummaryItems []BillSummaryItem `json:"billSummaryItem"`
}

// BillSummaryItem is one charge line under a subscriber.
type BillSummaryItem struct {
	Cat  string  `json:"cat"`
	Amt  float64 `json:"amt"`
	Name string  `json:"name,omitempty"`
}
