package entity

// Customer is one entry of the static customer directory.
type Customer struct {
	Name           string `json:"name"`
	Plan           string `json:"plan"`
	Status         string `json:"status"`
	AvailableBills int    `json:"availableBills"`
}
