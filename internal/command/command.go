package command

import (
	"regexp"
	"strconv"
	"strings"
)

type Kind int

const (
	Unrecognized Kind = iota
	Help
	Resolve
	Unresolve
	Purge
	PurgeUser
	PurgeAll
	Clean
	Mute
	Unmute
	GetNotes
	AddNote
	LockdownStart
	LockdownEnd
)

// Intent is the parsed form of one command message. It is built once
// per message and never mutated.
type Intent struct {
	Kind  Kind
	Email string
	Count int
	Text  string
}

// purgeAllCap bounds "purge <email>" with no explicit count.
const purgeAllCap = 1000

var (
	rePurge     = regexp.MustCompile(`^purge\s+(\d+)$`)
	rePurgeUser = regexp.MustCompile(`^purge\s+(\S+@\S+)\s+(\d+)$`)
	rePurgeAll  = regexp.MustCompile(`^purge\s+(\S+@\S+)$`)
	reMute      = regexp.MustCompile(`^mute\s+(\S+@\S+)$`)
	reUnmute    = regexp.MustCompile(`^unmute\s+(\S+@\S+)$`)
	reGetNotes  = regexp.MustCompile(`^getnotes\s+(\S+@\S+)$`)
	reAddNote   = regexp.MustCompile(`^addnote\s+(\S+@\S+)\s+(.+)$`)
	reLockdown  = regexp.MustCompile(`^lockdown\s+(start|end)$`)
)

// Parse maps trimmed message text to exactly one Intent. Matching is
// first-match-wins; unmatched text yields Unrecognized.
func Parse(text string) Intent {
	text = strings.TrimSpace(text)

	switch text {
	case "", "help":
		return Intent{Kind: Help}
	case "resolve":
		return Intent{Kind: Resolve}
	case "unresolve":
		return Intent{Kind: Unresolve}
	case "clean":
		return Intent{Kind: Clean}
	}

	if m := rePurge.FindStringSubmatch(text); m != nil {
		n, ok := parseCount(m[1])
		if !ok {
			return Intent{}
		}
		return Intent{Kind: Purge, Count: n}
	}
	if m := rePurgeUser.FindStringSubmatch(text); m != nil {
		n, ok := parseCount(m[2])
		if !ok {
			return Intent{}
		}
		return Intent{Kind: PurgeUser, Email: m[1], Count: n}
	}
	if m := rePurgeAll.FindStringSubmatch(text); m != nil {
		return Intent{Kind: PurgeAll, Email: m[1], Count: purgeAllCap}
	}
	if m := reMute.FindStringSubmatch(text); m != nil {
		return Intent{Kind: Mute, Email: m[1]}
	}
	if m := reUnmute.FindStringSubmatch(text); m != nil {
		return Intent{Kind: Unmute, Email: m[1]}
	}
	if m := reGetNotes.FindStringSubmatch(text); m != nil {
		return Intent{Kind: GetNotes, Email: m[1]}
	}
	if m := reAddNote.FindStringSubmatch(text); m != nil {
		return Intent{Kind: AddNote, Email: m[1], Text: m[2]}
	}
	if m := reLockdown.FindStringSubmatch(text); m != nil {
		if m[1] == "start" {
			return Intent{Kind: LockdownStart}
		}
		return Intent{Kind: LockdownEnd}
	}

	return Intent{}
}

// parseCount converts a digit-only capture. Values too large for int
// clamp to the maximum; the executor bounds actual platform calls.
func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return n, true
		}
		return 0, false
	}
	return n, true
}
