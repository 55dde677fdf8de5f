package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ ChallengeStore = (*MemoryChallengeStore)(nil)
	_ GrantRevoker   = grantRevokerFunc(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
