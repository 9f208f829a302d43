package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

var ErrPoolTooSmall = errors.New("hero pool too small")
var ErrNegativeCount = errors.New("negative hero count")

type Team string

const (
	TeamBlue Team = "blue"
	TeamRed  Team = "red"
)

// Opposite returns the other side. Anything that is not blue maps to blue.
func (t Team) Opposite() Team {
	if t == TeamBlue {
		return TeamRed
	}
	return TeamBlue
}

type Role string

const (
	RoleFighter  Role = "fighter"
	RoleMage     Role = "mage"
	RoleAssassin Role = "assassin"
	RoleTank     Role = "tank"
	RoleMarksman Role = "marksman"
	RoleSupport  Role = "support"
)

// Roles is the fixed enumeration order used when splitting a balanced quota.
var Roles = []Role{RoleFighter, RoleMage, RoleAssassin, RoleTank, RoleMarksman, RoleSupport}

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if slices.Contains(Roles, r) {
		return r, true
	}
	return "", false
}

type Hero struct {
	ID    string `json:"heroId" yaml:"heroId"`
	Name  string `json:"name" yaml:"name"`
	Alias string `json:"alias" yaml:"alias"`
	Title string `json:"title,omitempty" yaml:"title"`
	Roles []Role `json:"roles" yaml:"roles"`
}

func (h Hero) HasRole(r Role) bool { return slices.Contains(h.Roles, r) }

// Allocation holds one round's result. The two sides are separate slices so
// that a caller can only hand a player the list of their own team.
type Allocation struct {
	Blue []Hero
	Red  []Hero
}

func (a Allocation) For(team Team) []Hero {
	switch team {
	case TeamBlue:
		return a.Blue
	case TeamRed:
		return a.Red
	default:
		return nil
	}
}

// BalanceThreshold is the smallest total for which balance-by-role applies.
const BalanceThreshold = 6

/*
	Allocate draws blueCount+redCount distinct heroes from pool.

	Unbalanced: a partial Fisher-Yates shuffle over a copy of the pool.
	Balanced:   each role in Roles gets total/6 slots (the first total%6 roles
	            one more), drawn among unused heroes carrying that role; any
	            shortfall is backfilled from the unused remainder.

	The combined draw is shuffled once more before the split so role order
	never decides which side a hero lands on.
*/
func Allocate(rng *rand.Rand, pool []Hero, blueCount, redCount int, balanceByRole bool) (Allocation, error) {
	if blueCount < 0 || redCount < 0 {
		return Allocation{}, ErrNegativeCount
	}

	pool = uniqueByID(pool)
	total := blueCount + redCount
	if total > len(pool) {
		return Allocation{}, fmt.Errorf("%w: need %d, have %d", ErrPoolTooSmall, total, len(pool))
	}

	var picked []Hero
	if balanceByRole && total >= BalanceThreshold {
		picked = balanced(rng, pool, total)
	} else {
		picked = draw(rng, pool, total)
	}
	shuffle(rng, picked)

	return Allocation{
		Blue: slices.Clone(picked[:blueCount]),
		Red:  slices.Clone(picked[blueCount:]),
	}, nil
}

func balanced(rng *rand.Rand, pool []Hero, total int) []Hero {
	used := make(map[string]bool, total)
	out := make([]Hero, 0, total)

	base, extra := total/len(Roles), total%len(Roles)
	for i, role := range Roles {
		quota := base
		if i < extra {
			quota++
		}

		var candidates []Hero
		for _, h := range pool {
			if !used[h.ID] && h.HasRole(role) {
				candidates = append(candidates, h)
			}
		}

		for _, h := range draw(rng, candidates, min(quota, len(candidates))) {
			used[h.ID] = true
			out = append(out, h)
		}
	}

	// Backfill roles that ran dry.
	if len(out) < total {
		var rest []Hero
		for _, h := range pool {
			if !used[h.ID] {
				rest = append(rest, h)
			}
		}
		out = append(out, draw(rng, rest, min(total-len(out), len(rest)))...)
	}

	if len(out) > total {
		out = draw(rng, out, total)
	}
	return out
}

func uniqueByID(pool []Hero) []Hero {
	seen := make(map[string]bool, len(pool))
	out := make([]Hero, 0, len(pool))
	for _, h := range pool {
		if seen[h.ID] {
			continue
		}
		seen[h.ID] = true
		out = append(out, h)
	}
	return out
}
