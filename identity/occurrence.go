package identity

import "time"

// Occurrence is a UTC instant. Immutable after construction.
type Occurrence struct {
	Instant time.Time `bson:"instant" json:"instant"`
}

// NewOccurrence creates an occurrence at the given instant, normalized to UTC.
func NewOccurrence(t time.Time) Occurrence {
	return Occurrence{Instant: t.UTC()}
}

// OccurrenceNow creates an occurrence at the current instant.
func OccurrenceNow() Occurrence {
	return NewOccurrence(time.Now())
}

// ConfirmationOccurrence records that something happened at an instant,
// such as an email or phone number being confirmed.
type ConfirmationOccurrence struct {
	Occurrence `bson:",inline"`
}

// NewConfirmationOccurrence creates a confirmation at the given instant.
func NewConfirmationOccurrence(t time.Time) ConfirmationOccurrence {
	return ConfirmationOccurrence{Occurrence: NewOccurrence(t)}
}

// ConfirmationNow creates a confirmation at the current instant.
func ConfirmationNow() ConfirmationOccurrence {
	return ConfirmationOccurrence{Occurrence: OccurrenceNow()}
}

// FutureOccurrence records that something is scheduled for an instant, such
// as a lockout expiry. The instant is intended to lie in the future but is
// not validated to.
type FutureOccurrence struct {
	Occurrence `bson:",inline"`
}

// NewFutureOccurrence creates a future occurrence at the given instant.
func NewFutureOccurrence(t time.Time) FutureOccurrence {
	return FutureOccurrence{Occurrence: NewOccurrence(t)}
}
