package types

// WalkInCustomerName is recorded when an order carries no customer snapshot.
const WalkInCustomerName = "Walk-in"

// CustomerDetails is the denormalized customer snapshot persisted on an
// order. Later edits to the customer record never alter historical orders.
type CustomerDetails struct {
	Name    string  `gorm:"column:customer_name;not null;default:'Walk-in'" json:"name"`
	Phone   *string `gorm:"column:customer_phone" json:"phone,omitempty"`
	Email   *string `gorm:"column:customer_email" json:"email,omitempty"`
	Address *string `gorm:"column:customer_address" json:"address,omitempty"`
}

// WalkIn returns the snapshot used when no customer details were supplied.
func WalkIn() CustomerDetails {
	return CustomerDetails{Name: WalkInCustomerName}
}
