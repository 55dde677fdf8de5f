package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ArtifactPayload is the engine-owned artifact body. Its shape is not this
// module's concern; it stays a serialized blob end to end. The three fields
// the store indexes, plus the auxiliary card reference the claims projector
// reads, are extracted once here so nothing else probes the raw JSON.
type ArtifactPayload struct {
	raw   []byte
	index payloadIndex
}

type payloadIndex struct {
	GrantID   string `json:"grantId"`
	UserCode  string `json:"userCode"`
	UID       string `json:"uid"`
	CardToken string `json:"cardToken"`
}

func NewArtifactPayload(raw []byte) (ArtifactPayload, error) {
	if len(raw) == 0 {
		return ArtifactPayload{}, fmt.Errorf("core: artifact payload is required")
	}
	var index payloadIndex
	if err := json.Unmarshal(raw, &index); err != nil {
		return ArtifactPayload{}, fmt.Errorf("core: decode artifact payload: %w", err)
	}
	return ArtifactPayload{
		raw:   append([]byte(nil), raw...),
		index: index,
	}, nil
}

// MustArtifactPayload builds a payload from fields this module controls.
// Intended for tests and for the engine-facing grant object.
func MustArtifactPayload(fields map[string]any) ArtifactPayload {
	raw, err := json.Marshal(fields)
	if err != nil {
		panic(fmt.Sprintf("core: marshal artifact payload: %v", err))
	}
	payload, err := NewArtifactPayload(raw)
	if err != nil {
		panic(err)
	}
	return payload
}

func (p ArtifactPayload) Empty() bool {
	return len(p.raw) == 0
}

func (p ArtifactPayload) Raw() []byte {
	return append([]byte(nil), p.raw...)
}

func (p ArtifactPayload) GrantID() string {
	return strings.TrimSpace(p.index.GrantID)
}

func (p ArtifactPayload) UserCode() string {
	return strings.TrimSpace(p.index.UserCode)
}

func (p ArtifactPayload) UID() string {
	return strings.TrimSpace(p.index.UID)
}

// CardToken returns the short-lived payment instrument reference attached to
// a grant payload during a separate consent flow, or empty when absent.
func (p ArtifactPayload) CardToken() string {
	return strings.TrimSpace(p.index.CardToken)
}
