package identity

// Claim is an immutable (type, value) pair attached to a user.
type Claim struct {
	Type  string `bson:"type" json:"type"`
	Value string `bson:"value" json:"value"`
}

// NewClaim creates a claim. The type cannot be empty.
func NewClaim(claimType, value string) (Claim, error) {
	if claimType == "" {
		return Claim{}, NewDomainError(CodeInvalidInput, "claim type cannot be empty")
	}
	return Claim{Type: claimType, Value: value}, nil
}

// Equals reports whether two claims carry the same type and value.
func (c Claim) Equals(other Claim) bool {
	return c.Type == other.Type && c.Value == other.Value
}
