package constants

// QuickAction is one of the fixed canned questions offered next to the free
// chat input.
type QuickAction struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

// QuickActions are served as-is by the API; the UI submits the question text
// through the normal chat endpoint.
var QuickActions = []QuickAction{
	{ID: "total_amount", Question: "Care este totalul de plata pe factura curenta?"},
	{ID: "compare_bills", Question: "Compara facturile mele intre ele."},
	{ID: "cost_breakdown", Question: "Detaliaza costurile facturate pe categorii."},
}
