package bankauth

import (
	"fmt"

	bankauthcommand "github.com/goliatone/go-bankauth/command"
	"github.com/goliatone/go-bankauth/core"
	bankauthquery "github.com/goliatone/go-bankauth/query"
)

// CommandQueryService is the service surface the facade wires commands and
// queries around. *core.Service satisfies it.
type CommandQueryService interface {
	bankauthcommand.MutatingService
	bankauthquery.InteractionReader
	bankauthquery.ConsentReader
}

type Commands struct {
	SubmitLogin         *bankauthcommand.SubmitLoginCommand
	ConfirmConsent      *bankauthcommand.ConfirmConsentCommand
	DenyConsent         *bankauthcommand.DenyConsentCommand
	RevokeConsent       *bankauthcommand.RevokeConsentCommand
	RevokeAllForSubject *bankauthcommand.RevokeAllForSubjectCommand
	RegisterClient      *bankauthcommand.RegisterClientCommand
}

type Queries struct {
	GetInteraction     *bankauthquery.GetInteractionQuery
	ListActiveConsents *bankauthquery.ListActiveConsentsQuery
	ListClients        *bankauthquery.ListClientsQuery
}

// Facade bundles the command and query handlers over one service instance
// so host applications register them with a dispatcher in one place.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	clientStore core.ClientStore
}

// WithFacadeClientStore supplies the client registry the register-client
// command and client listing query bind to. Defaults to the service's
// configured client store.
func WithFacadeClientStore(store core.ClientStore) FacadeOption {
	return func(options *facadeOptions) {
		options.clientStore = store
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("bankauth: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	clients := cfg.clientStore
	if clients == nil {
		clients = resolveClientStore(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		SubmitLogin:         bankauthcommand.NewSubmitLoginCommand(service),
		ConfirmConsent:      bankauthcommand.NewConfirmConsentCommand(service),
		DenyConsent:         bankauthcommand.NewDenyConsentCommand(service),
		RevokeConsent:       bankauthcommand.NewRevokeConsentCommand(service),
		RevokeAllForSubject: bankauthcommand.NewRevokeAllForSubjectCommand(service),
	}
	facade.queries = Queries{
		GetInteraction:     bankauthquery.NewGetInteractionQuery(service),
		ListActiveConsents: bankauthquery.NewListActiveConsentsQuery(service),
	}
	if clients != nil {
		facade.commands.RegisterClient = bankauthcommand.NewRegisterClientCommand(clients)
		facade.queries.ListClients = bankauthquery.NewListClientsQuery(clients)
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

func resolveClientStore(service CommandQueryService) core.ClientStore {
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	return provider.Dependencies().ClientStore
}
