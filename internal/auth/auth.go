package auth

import "mod-bot/internal/command"

// Zulip organization roles. Lower values carry more privilege.
const (
	RoleOwner     = 100
	RoleAdmin     = 200
	RoleModerator = 300
	RoleMember    = 400
	RoleGuest     = 600
)

// Policy decides whether a caller's role may execute an intent.
// The role must be fetched fresh for every message; a cached role can
// authorize a demoted moderator.
type Policy struct {
	threshold int
}

// New returns a policy allowing moderator-tier commands for roles at or
// above (numerically at or below) threshold.
func New(threshold int) *Policy {
	if threshold <= 0 {
		threshold = RoleModerator
	}
	return &Policy{threshold: threshold}
}

func (p *Policy) Allows(role int, kind command.Kind) bool {
	switch kind {
	case command.Help, command.Resolve, command.Unresolve, command.Unrecognized:
		return true
	}
	return role <= p.threshold
}

// Moderator reports whether the role alone clears the threshold, used
// to pick the help listing shown to a caller.
func (p *Policy) Moderator(role int) bool {
	return role <= p.threshold
}
