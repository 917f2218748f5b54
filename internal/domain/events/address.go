package events

import "fmt"

// Address is the structured location submitted with a new event.
type Address struct {
	Location       string
	LocationNumber string
	District       string
	LocationCity   string
	UF             string
	CEP            string
}

// Compose renders the single stored location string. An empty CEP still
// leaves its trailing separator.
func (a Address) Compose() string {
	return fmt.Sprintf("%s, %s - %s, %s - %s, %s",
		a.Location, a.LocationNumber, a.District, a.LocationCity, a.UF, a.CEP)
}
