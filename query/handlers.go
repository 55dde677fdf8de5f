package query

import (
	"context"

	"github.com/goliatone/go-bankauth/core"
)

// InteractionReader is the read-only slice of the authorization core the
// query layer consumes. The concrete implementation is *core.Service.
type InteractionReader interface {
	InteractionDetails(ctx context.Context, interactionID string) (core.InteractionView, error)
}

type ConsentReader interface {
	ListActiveConsents(ctx context.Context, userID string) ([]core.ConsentSummary, error)
}

type ClientReader interface {
	List(ctx context.Context) ([]core.Client, error)
}

type GetInteractionQuery struct {
	reader InteractionReader
}

func NewGetInteractionQuery(reader InteractionReader) *GetInteractionQuery {
	return &GetInteractionQuery{reader: reader}
}

func (q *GetInteractionQuery) Query(ctx context.Context, msg GetInteractionMessage) (core.InteractionView, error) {
	if q == nil || q.reader == nil {
		return core.InteractionView{}, queryDependencyError("query: interaction reader is required")
	}
	return q.reader.InteractionDetails(ctx, msg.InteractionID)
}

type ListActiveConsentsQuery struct {
	reader ConsentReader
}

func NewListActiveConsentsQuery(reader ConsentReader) *ListActiveConsentsQuery {
	return &ListActiveConsentsQuery{reader: reader}
}

func (q *ListActiveConsentsQuery) Query(ctx context.Context, msg ListActiveConsentsMessage) ([]core.ConsentSummary, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: consent reader is required")
	}
	return q.reader.ListActiveConsents(ctx, msg.UserID)
}

type ListClientsQuery struct {
	reader ClientReader
}

func NewListClientsQuery(reader ClientReader) *ListClientsQuery {
	return &ListClientsQuery{reader: reader}
}

func (q *ListClientsQuery) Query(ctx context.Context, msg ListClientsMessage) ([]core.Client, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: client reader is required")
	}
	return q.reader.List(ctx)
}
