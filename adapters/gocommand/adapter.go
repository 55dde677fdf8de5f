// Package gocommand bridges the bankauth command and query handlers onto the
// go-command registry and dispatcher so host applications drive the
// authorization core through message dispatch.
package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	bankauth "github.com/goliatone/go-bankauth"
	bankauthcommand "github.com/goliatone/go-bankauth/command"
	"github.com/goliatone/go-bankauth/core"
	bankauthquery "github.com/goliatone/go-bankauth/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeCommandFunc[T any](handler command.CommandFunc[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(handler, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func SubscribeQueryFunc[T any, R any](qry command.QueryFunc[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// SubscribeFacade subscribes every wired handler on the facade with the
// dispatcher and returns the subscriptions in registration order. Handlers
// the facade left unwired (no client store) are skipped.
func SubscribeFacade(facade *bankauth.Facade, runnerOpts ...runner.Option) []commanddispatcher.Subscription {
	if facade == nil {
		return nil
	}

	var subscriptions []commanddispatcher.Subscription

	commands := facade.Commands()
	if commands.SubmitLogin != nil {
		subscriptions = append(subscriptions, SubscribeCommand[bankauthcommand.SubmitLoginMessage](commands.SubmitLogin, runnerOpts...))
	}
	if commands.ConfirmConsent != nil {
		subscriptions = append(subscriptions, SubscribeCommand[bankauthcommand.ConfirmConsentMessage](commands.ConfirmConsent, runnerOpts...))
	}
	if commands.DenyConsent != nil {
		subscriptions = append(subscriptions, SubscribeCommand[bankauthcommand.DenyConsentMessage](commands.DenyConsent, runnerOpts...))
	}
	if commands.RevokeConsent != nil {
		subscriptions = append(subscriptions, SubscribeCommand[bankauthcommand.RevokeConsentMessage](commands.RevokeConsent, runnerOpts...))
	}
	if commands.RevokeAllForSubject != nil {
		subscriptions = append(subscriptions, SubscribeCommand[bankauthcommand.RevokeAllForSubjectMessage](commands.RevokeAllForSubject, runnerOpts...))
	}
	if commands.RegisterClient != nil {
		subscriptions = append(subscriptions, SubscribeCommand[bankauthcommand.RegisterClientMessage](commands.RegisterClient, runnerOpts...))
	}

	queries := facade.Queries()
	if queries.GetInteraction != nil {
		subscriptions = append(subscriptions, SubscribeQuery[bankauthquery.GetInteractionMessage, core.InteractionView](queries.GetInteraction, runnerOpts...))
	}
	if queries.ListActiveConsents != nil {
		subscriptions = append(subscriptions, SubscribeQuery[bankauthquery.ListActiveConsentsMessage, []core.ConsentSummary](queries.ListActiveConsents, runnerOpts...))
	}
	if queries.ListClients != nil {
		subscriptions = append(subscriptions, SubscribeQuery[bankauthquery.ListClientsMessage, []core.Client](queries.ListClients, runnerOpts...))
	}

	return subscriptions
}
