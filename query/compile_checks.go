package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-bankauth/core"
)

var (
	_ gocmd.Querier[GetInteractionMessage, core.InteractionView]      = (*GetInteractionQuery)(nil)
	_ gocmd.Querier[ListActiveConsentsMessage, []core.ConsentSummary] = (*ListActiveConsentsQuery)(nil)
	_ gocmd.Querier[ListClientsMessage, []core.Client]                = (*ListClientsQuery)(nil)
)
