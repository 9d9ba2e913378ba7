package deals

import (
	"time"

	"commontrust-web/internal/domain/members"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusDisputed   Status = "disputed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusDisputed:
		return true
	default:
		return false
	}
}

// Deal es una transacción entre dos members. Las reviews lo referencian por ID.
type Deal struct {
	ID          string
	Description string
	Status      Status

	InitiatorID    string
	CounterpartyID string

	Created time.Time

	// Expansión de relaciones; nil si el store no la trajo.
	Initiator    *members.Member
	Counterparty *members.Member
}

// Patch para edición admin; nil = no tocar.
type Patch struct {
	Status      *Status
	Description *string
}

func (p Patch) Empty() bool {
	return p.Status == nil && p.Description == nil
}

// Filter del listado admin. Campos vacíos no filtran.
type Filter struct {
	Status   Status
	MemberID string // initiator o counterparty
}
