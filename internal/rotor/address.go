package rotor

import "github.com/google/uuid"

// Address is a reference-counted* endpoint bound to exactly one
// Locality for its entire lifetime. Two addresses are the same
// endpoint iff their identity (id) fields are equal; the locality
// back-reference is weak (lookup-only, never owning) and is only used
// to decide where an Envelope destined for this address must be
// enqueued.
//
// *Go's garbage collector makes an explicit refcount unnecessary: an
// Address is kept alive exactly as long as something holds a copy of
// it, same as any other value type.
type Address struct {
	id       uuid.UUID
	locality *Locality
}

// Equal reports whether two addresses name the same endpoint. Address
// is comparable with == directly (uuid.UUID and *Locality are both
// comparable), but Equal is provided for readability at call sites
// that compare dynamically-typed values.
func (a Address) Equal(other Address) bool {
	return a == other
}

// Locality returns the locality this address is bound to. Used only
// for routing decisions (Send, Subscribe); callers must never mutate
// state on the returned Locality except through its own exported,
// thread-safe methods (Enqueue, DoProcess).
func (a Address) Locality() *Locality {
	return a.locality
}

// IsZero reports whether this is the zero Address value, i.e. one
// that was never produced by a Locality.
func (a Address) IsZero() bool {
	return a.locality == nil && a.id == uuid.Nil
}

// String renders the address identity for logging.
func (a Address) String() string {
	return a.id.String()
}

func newAddress(loc *Locality) Address {
	return Address{id: uuid.New(), locality: loc}
}
