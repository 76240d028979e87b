// Package brackets generates tournament match schedules from an enrolled
// participant list.
package brackets

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/brainiak-app/brainiak-core/models"
)

// RoundRobin produces the full single round-robin schedule: every unordered
// pair of participants exactly once, in deterministic generation order
// (i<j over the join-ordered participant list). Seq starts at 1 and drives
// sequential activation.
func RoundRobin(tournamentID string, participants []models.TournamentParticipant) ([]models.TournamentMatch, error) {
	if len(participants) < 2 {
		return nil, fmt.Errorf("round robin needs at least 2 participants, got %d", len(participants))
	}

	matches := make([]models.TournamentMatch, 0, len(participants)*(len(participants)-1)/2)
	seq := 0
	for i := 0; i < len(participants); i++ {
		for j := i + 1; j < len(participants); j++ {
			seq++
			matches = append(matches, models.TournamentMatch{
				ID:           uuid.NewString(),
				TournamentID: tournamentID,
				Seq:          seq,
				Player1ID:    participants[i].UserID,
				Player2ID:    participants[j].UserID,
				Status:       models.MatchPending,
			})
		}
	}
	return matches, nil
}

// InitialStandings returns one zeroed standing row per participant, in join
// order.
func InitialStandings(tournamentID string, participants []models.TournamentParticipant) []models.TournamentStanding {
	standings := make([]models.TournamentStanding, 0, len(participants))
	for _, p := range participants {
		standings = append(standings, models.TournamentStanding{
			TournamentID: tournamentID,
			UserID:       p.UserID,
			Username:     p.Username,
		})
	}
	return standings
}
