package sqlstore

import "github.com/goliatone/go-bankauth/core"

var (
	_ core.ArtifactStore        = (*ArtifactStore)(nil)
	_ core.ArtifactStoreFactory = (*RepositoryFactory)(nil)
	_ core.ClientStore          = (*ClientStore)(nil)
	_ core.ClientResolver       = (*StoreClientResolver)(nil)
	_ core.ClientResolver       = (*CachedClientResolver)(nil)
	_ core.ConsentStore         = (*ConsentStore)(nil)
	_ core.SubjectStore         = (*UserStore)(nil)
	_ core.ChallengeStore       = (*ChallengeStore)(nil)
)
