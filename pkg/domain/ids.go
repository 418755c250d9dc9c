package domain

import (
	"github.com/google/uuid"

	dErrors "drawcore/pkg/domain-errors"
)

// Typed IDs keep round, user, product, and participation identifiers from
// being swapped at call sites. Construct via the Parse helpers at trust
// boundaries; direct casting bypasses validation.
type (
	RoundID         uuid.UUID
	UserID          uuid.UUID
	ProductID       uuid.UUID
	ParticipationID uuid.UUID
)

// NewRoundID returns a fresh random round ID.
func NewRoundID() RoundID { return RoundID(uuid.New()) }

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewProductID returns a fresh random product ID.
func NewProductID() ProductID { return ProductID(uuid.New()) }

// NewParticipationID returns a fresh random participation ID.
func NewParticipationID() ParticipationID { return ParticipationID(uuid.New()) }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid id format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}

// ParseRoundID constructs a RoundID from external input.
func ParseRoundID(s string) (RoundID, error) {
	u, err := parseUUID(s)
	return RoundID(u), err
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

// ParseProductID constructs a ProductID from external input.
func ParseProductID(s string) (ProductID, error) {
	u, err := parseUUID(s)
	return ProductID(u), err
}

// ParseParticipationID constructs a ParticipationID from external input.
func ParseParticipationID(s string) (ParticipationID, error) {
	u, err := parseUUID(s)
	return ParticipationID(u), err
}

func (id RoundID) String() string         { return uuid.UUID(id).String() }
func (id UserID) String() string          { return uuid.UUID(id).String() }
func (id ProductID) String() string       { return uuid.UUID(id).String() }
func (id ParticipationID) String() string { return uuid.UUID(id).String() }

func (id RoundID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ParticipationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// The IDs serialize as canonical UUID strings in JSON and logs.

func (id RoundID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id UserID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }
func (id ProductID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id ParticipationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *RoundID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *UserID) UnmarshalText(b []byte) error          { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ProductID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ParticipationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
