package common

// BearerScheme is the Authorization header scheme carrying the access token.
const BearerScheme = "Bearer"

// Instance visibility modes.
const (
	InstancePrivate    = "private"
	InstancePublic     = "public"
	InstanceCommercial = "commercial"
)

// User tiers.
const (
	TierFree    = 0
	TierPremium = 10
)
