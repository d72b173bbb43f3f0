package program

import (
	"errors"
	"strings"
)

// Program identifies one of the two billed program tracks. Each track is
// settled through its own Stripe account, so every credential, customer id
// and webhook secret is scoped to exactly one Program.
type Program string

const (
	Dugsi Program = "dugsi"
	Mahad Program = "mahad"
)

var ErrUnknownProgram = errors.New("unknown_program")

// All returns both program tracks.
func All() []Program {
	return []Program{Dugsi, Mahad}
}

// Parse resolves a program selector. Selection is always explicit (route
// path, config key), never inferred from payload content.
func Parse(value string) (Program, error) {
	switch Program(strings.ToLower(strings.TrimSpace(value))) {
	case Dugsi:
		return Dugsi, nil
	case Mahad:
		return Mahad, nil
	default:
		return "", ErrUnknownProgram
	}
}

func (p Program) String() string { return string(p) }

// Source is the idempotency-ledger source key for this program's provider
// account.
func (p Program) Source() string { return "stripe:" + string(p) }
