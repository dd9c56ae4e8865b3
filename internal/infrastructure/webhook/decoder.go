package webhook

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	"github.com/taskflow/backend/internal/domain/identity"
)

// ErrMalformedPayload is returned when a delivery body cannot be decoded
var ErrMalformedPayload = errors.New("webhook: malformed payload")

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type userData struct {
	ID                    string         `json:"id"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	Username              *string        `json:"username"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              *string        `json:"image_url"`
	PublicMetadata        struct {
		Role string `json:"role"`
	} `json:"public_metadata"`
}

// primaryEmail returns the address flagged as primary, else the first one
func (u userData) primaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID != "" && e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

type membershipData struct {
	Role         string `json:"role"`
	Organization struct {
		ID string `json:"id"`
	} `json:"organization"`
	PublicUserData struct {
		UserID string `json:"user_id"`
	} `json:"public_user_data"`
}

type objectRef struct {
	ID string `json:"id"`
}

// Decode turns a verified delivery body into a sync event. Unknown event
// types decode to identityapp.UnknownEvent.
func Decode(body []byte) (identityapp.SyncEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedPayload)
	}

	switch env.Type {
	case identityapp.EventUserCreated:
		var d userData
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		return identityapp.UserCreated{
			UserID:    d.ID,
			Email:     d.primaryEmail(),
			Username:  deref(d.Username),
			FirstName: deref(d.FirstName),
			LastName:  deref(d.LastName),
			Photo:     deref(d.ImageURL),
			Role:      identity.Role(d.PublicMetadata.Role),
		}, nil

	case identityapp.EventUserUpdated:
		var d userData
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		profile := identity.UserProfile{
			Username:  d.Username,
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Photo:     d.ImageURL,
		}
		if email := d.primaryEmail(); email != "" {
			profile.Email = &email
		}
		return identityapp.UserUpdated{UserID: d.ID, Profile: profile}, nil

	case identityapp.EventUserDeleted:
		var d objectRef
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		return identityapp.UserDeleted{UserID: d.ID}, nil

	case identityapp.EventMembershipCreated, identityapp.EventMembershipUpdated:
		var d membershipData
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		return identityapp.MembershipChanged{
			Type:    env.Type,
			OrgID:   d.Organization.ID,
			UserID:  d.PublicUserData.UserID,
			OrgRole: identity.Role(d.Role),
		}, nil

	case identityapp.EventMembershipDeleted:
		var d membershipData
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		return identityapp.MembershipDeleted{
			OrgID:  d.Organization.ID,
			UserID: d.PublicUserData.UserID,
		}, nil

	case identityapp.EventOrganizationDeleted:
		var d objectRef
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		return identityapp.OrganizationDeleted{OrgID: d.ID}, nil
	}
	return identityapp.UnknownEvent{Type: env.Type}, nil
}

func unmarshalData(env envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s without data", ErrMalformedPayload, env.Type)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Type, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
