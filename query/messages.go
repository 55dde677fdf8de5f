package query

import "strings"

const (
	TypeGetInteraction     = "bankauth.query.interaction.details"
	TypeListActiveConsents = "bankauth.query.consent.list_active"
	TypeListClients        = "bankauth.query.client.list"
)

type GetInteractionMessage struct {
	InteractionID string
}

func (GetInteractionMessage) Type() string { return TypeGetInteraction }

func (m GetInteractionMessage) Validate() error {
	if strings.TrimSpace(m.InteractionID) == "" {
		return queryValidationError("interaction_id", "interaction id is required")
	}
	return nil
}

// ListActiveConsentsMessage lists every subject's consents when UserID is
// blank; the admin surface uses both shapes.
type ListActiveConsentsMessage struct {
	UserID string
}

func (ListActiveConsentsMessage) Type() string { return TypeListActiveConsents }

func (m ListActiveConsentsMessage) Validate() error {
	return nil
}

type ListClientsMessage struct{}

func (ListClientsMessage) Type() string { return TypeListClients }

func (m ListClientsMessage) Validate() error {
	return nil
}
