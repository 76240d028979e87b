// Package rating holds the tier and points math shared by every settlement
// path. Duel settlement and tournament-match settlement must produce identical
// deltas for identical inputs, so nothing in here touches storage or clocks.
package rating

import "math"

const (
	// HighestTier is the best rank; TierCount (10) is the starting rank.
	HighestTier = 1
	TierCount   = 10

	tierBandWidth  = 100
	baseWinPoints  = 20
	baseLossPoints = 10
	tierMultiplier = 1.5
	drawPoints     = 5
)

// Outcome of a finished head-to-head game.
type Outcome int

const (
	Player1Wins Outcome = iota
	Player2Wins
	Draw
)

// TierForPoints maps cumulative points to a tier. Bands are 100 points wide:
// tier 10 covers [0,100], tier 9 covers [101,200], ... tier 1 is 901 and up.
// Monotonically non-increasing over points; negative input clamps to 0.
func TierForPoints(points int) int {
	if points <= 0 {
		return TierCount
	}
	tier := TierCount - (points-1)/tierBandWidth
	if tier < HighestTier {
		return HighestTier
	}
	return tier
}

// PointsDelta computes the signed points change for both players.
//
// A draw pays both sides the same small reward. A win over a stronger
// opponent (lower tier number) pays a bonus scaled by the tier gap; a win
// over a weaker opponent pays a reduced reward. Losses mirror that: losing
// to a weaker opponent costs extra, losing to a stronger one costs less.
func PointsDelta(player1Tier, player2Tier int, outcome Outcome) (int, int) {
	if outcome == Draw {
		return drawPoints, drawPoints
	}

	gap := float64(player1Tier - player2Tier)
	if gap < 0 {
		gap = -gap
	}

	winnerTier, loserTier := player1Tier, player2Tier
	if outcome == Player2Wins {
		winnerTier, loserTier = player2Tier, player1Tier
	}

	var winDelta float64
	if winnerTier > loserTier {
		// Higher tier number = weaker player beat a stronger one.
		winDelta = baseWinPoints + gap*tierMultiplier
	} else {
		winDelta = baseWinPoints - gap*tierMultiplier*0.5
	}

	var lossDelta float64
	if loserTier > winnerTier {
		// Loser was the weaker player; soften the penalty.
		lossDelta = -(baseLossPoints - gap*tierMultiplier*0.3)
	} else {
		lossDelta = -(baseLossPoints + gap*tierMultiplier)
	}

	win := int(math.Round(winDelta))
	loss := int(math.Round(lossDelta))
	if outcome == Player1Wins {
		return win, loss
	}
	return loss, win
}

// ApplyDelta adds a delta to a cumulative points total, flooring at zero.
// Both settlement paths go through here so a losing streak can never push a
// profile negative.
func ApplyDelta(points, delta int) int {
	next := points + delta
	if next < 0 {
		return 0
	}
	return next
}

// CanSelectTier reports whether a user may target the given tier in control
// mode. Only the user's own tier or better-ranked ones (numerically lower or
// equal) are selectable.
func CanSelectTier(userTier, targetTier int) bool {
	if targetTier < HighestTier || targetTier > TierCount {
		return false
	}
	return targetTier <= userTier
}
