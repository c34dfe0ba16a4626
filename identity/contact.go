package identity

// ContactRecord is a user-supplied contact value with an optional canonical
// form and confirmation state. Records are immutable; the With* methods on
// the variants return modified copies.
type ContactRecord struct {
	Value           string                  `bson:"value" json:"value"`
	NormalizedValue string                  `bson:"normalizedValue,omitempty" json:"normalized_value,omitempty"`
	Confirmation    *ConfirmationOccurrence `bson:"confirmation,omitempty" json:"confirmation,omitempty"`
}

// IsConfirmed reports whether the contact value has been confirmed.
func (c ContactRecord) IsConfirmed() bool {
	return c.Confirmation != nil
}

func (c ContactRecord) withConfirmation(at ConfirmationOccurrence) ContactRecord {
	c.Confirmation = &at
	return c
}

func (c ContactRecord) withoutConfirmation() ContactRecord {
	c.Confirmation = nil
	return c
}

func (c ContactRecord) withNormalized(value string) ContactRecord {
	c.NormalizedValue = value
	return c
}

// EmailRecord is a user's email address.
type EmailRecord struct {
	ContactRecord `bson:",inline"`
}

// NewEmailRecord creates an email record. The value cannot be empty.
func NewEmailRecord(value string) (EmailRecord, error) {
	if value == "" {
		return EmailRecord{}, NewDomainError(CodeInvalidInput, "email cannot be empty")
	}
	return EmailRecord{ContactRecord: ContactRecord{Value: value}}, nil
}

// WithConfirmation returns a copy confirmed at the given occurrence.
func (e EmailRecord) WithConfirmation(at ConfirmationOccurrence) EmailRecord {
	e.ContactRecord = e.ContactRecord.withConfirmation(at)
	return e
}

// WithoutConfirmation returns a copy with the confirmation cleared.
func (e EmailRecord) WithoutConfirmation() EmailRecord {
	e.ContactRecord = e.ContactRecord.withoutConfirmation()
	return e
}

// WithNormalized returns a copy carrying the canonical form of the address.
func (e EmailRecord) WithNormalized(value string) EmailRecord {
	e.ContactRecord = e.ContactRecord.withNormalized(value)
	return e
}

// PhoneRecord is a user's phone number.
type PhoneRecord struct {
	ContactRecord `bson:",inline"`
}

// NewPhoneRecord creates a phone record. The value cannot be empty.
func NewPhoneRecord(value string) (PhoneRecord, error) {
	if value == "" {
		return PhoneRecord{}, NewDomainError(CodeInvalidInput, "phone number cannot be empty")
	}
	return PhoneRecord{ContactRecord: ContactRecord{Value: value}}, nil
}

// WithConfirmation returns a copy confirmed at the given occurrence.
func (p PhoneRecord) WithConfirmation(at ConfirmationOccurrence) PhoneRecord {
	p.ContactRecord = p.ContactRecord.withConfirmation(at)
	return p
}

// WithoutConfirmation returns a copy with the confirmation cleared.
func (p PhoneRecord) WithoutConfirmation() PhoneRecord {
	p.ContactRecord = p.ContactRecord.withoutConfirmation()
	return p
}

// WithNormalized returns a copy carrying the canonical form of the number.
func (p PhoneRecord) WithNormalized(value string) PhoneRecord {
	p.ContactRecord = p.ContactRecord.withNormalized(value)
	return p
}
