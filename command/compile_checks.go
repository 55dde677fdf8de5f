package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SubmitLoginMessage]         = (*SubmitLoginCommand)(nil)
	_ gocmd.Commander[ConfirmConsentMessage]      = (*ConfirmConsentCommand)(nil)
	_ gocmd.Commander[DenyConsentMessage]         = (*DenyConsentCommand)(nil)
	_ gocmd.Commander[RevokeConsentMessage]       = (*RevokeConsentCommand)(nil)
	_ gocmd.Commander[RevokeAllForSubjectMessage] = (*RevokeAllForSubjectCommand)(nil)
	_ gocmd.Commander[RegisterClientMessage]      = (*RegisterClientCommand)(nil)
)
