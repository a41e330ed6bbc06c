// Package convert maps domain models to and from the wire messages.
package convert

import (
	"fmt"
	"time"

	pb "github.com/and161185/studyflow/internal/api/v1"
	model "github.com/and161185/studyflow/internal/model"
	u "github.com/gofrs/uuid/v5"
)

// --- helpers ---

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func minutesToWire(m *int) *int32 {
	if m == nil {
		return nil
	}
	v := int32(*m)
	return &v
}

func minutesFromWire(m *int32) *int {
	if m == nil {
		return nil
	}
	v := int(*m)
	return &v
}

// --- Identity ---

// ToWireIdentity converts a user record into the session identity message.
func ToWireIdentity(us model.User) pb.Identity {
	return pb.Identity{UserID: us.ID.String(), Email: us.Email, DisplayName: us.DisplayName}
}

// FromWireIdentity parses the identity message.
func FromWireIdentity(in pb.Identity) (model.Identity, error) {
	id, err := u.FromString(in.UserID)
	if err != nil {
		return model.Identity{}, fmt.Errorf("invalid user id: %w", err)
	}
	return model.Identity{UserID: id, Email: in.Email, DisplayName: in.DisplayName}, nil
}

// --- Profile ---

// ToWireProfile converts a profile for SetProfile.
func ToWireProfile(p model.Profile) pb.Profile {
	return pb.Profile{Username: p.Username, Email: p.Email, CreatedAt: optTime(p.CreatedAt)}
}

// FromWireProfile converts a SetProfile payload; the user id comes from the session.
func FromWireProfile(in pb.Profile) model.Profile {
	p := model.Profile{Username: in.Username, Email: in.Email}
	if in.CreatedAt != nil {
		p.CreatedAt = *in.CreatedAt
	}
	return p
}

// --- Plans ---

// ToWirePlan converts a domain plan to the wire message.
func ToWirePlan(p model.Plan) pb.Plan {
	out := pb.Plan{
		Subject:         p.Subject,
		Topic:           p.Topic,
		Description:     p.Description,
		StartTime:       p.Start,
		EndTime:         p.End,
		ReminderMinutes: minutesToWire(p.ReminderMinutes),
		CreatedAt:       p.CreatedAt,
	}
	if p.ID != u.Nil {
		out.ID = p.ID.String()
	}
	return out
}

// ToWirePlans converts a result set.
func ToWirePlans(ps []model.Plan) []pb.Plan {
	out := make([]pb.Plan, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToWirePlan(p))
	}
	return out
}

// FromWirePlan converts the wire plan. An empty id is allowed (plan not yet stored).
func FromWirePlan(in pb.Plan) (model.Plan, error) {
	p := model.Plan{
		Subject:         in.Subject,
		Topic:           in.Topic,
		Description:     in.Description,
		Start:           in.StartTime,
		End:             in.EndTime,
		ReminderMinutes: minutesFromWire(in.ReminderMinutes),
		CreatedAt:       in.CreatedAt,
	}
	if in.ID != "" {
		id, err := u.FromString(in.ID)
		if err != nil {
			return model.Plan{}, fmt.Errorf("invalid plan id: %w", err)
		}
		p.ID = id
	}
	return p, nil
}

// FromWirePlans converts a result set, failing on the first malformed plan.
func FromWirePlans(in []pb.Plan) ([]model.Plan, error) {
	out := make([]model.Plan, 0, len(in))
	for i, p := range in {
		m, err := FromWirePlan(p)
		if err != nil {
			return nil, fmt.Errorf("plan[%d]: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}
