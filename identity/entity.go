package identity

import "github.com/google/uuid"

// Status marks a record's lifecycle state. Every query path checks it
// explicitly instead of inferring deletion from a missing field.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// Entity is the base for persisted records. The ID is assigned once at
// construction and never reassigned.
type Entity struct {
	ID        string      `bson:"_id" json:"id"`
	Status    Status      `bson:"status" json:"status"`
	DeletedOn *Occurrence `bson:"deletedOn,omitempty" json:"deleted_on,omitempty"`
}

func newEntity() Entity {
	return Entity{
		ID:     uuid.New().String(),
		Status: StatusActive,
	}
}

// EntityID returns the unique identifier.
func (e Entity) EntityID() string {
	return e.ID
}

// IsDeleted reports whether the record has been soft-deleted.
func (e Entity) IsDeleted() bool {
	return e.Status == StatusDeleted
}
