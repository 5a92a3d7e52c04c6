package models

// Trip is a group of people sharing expenses. All of a trip's expenses use
// the trip's currency; multi-currency receipts are out of scope.
type Trip struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`

	// Participants are the member ids. Expenses may reference additional
	// participants (they are merged in by the service layer).
	Participants []string `json:"participants"`

	// JoinPINHash is the bcrypt hash of the trip's optional join PIN.
	// Empty means the trip is open. Never serialized to clients.
	JoinPINHash string `json:"-"`

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64 `json:"createdAt"`
}

// Validate checks the trip's invariants.
func (t *Trip) Validate() error {
	if t.Name == "" {
		return Validationf("name", "trip must have a name")
	}
	if len(t.Participants) == 0 {
		return Validationf("participants", "trip must have at least one participant")
	}
	return nil
}
