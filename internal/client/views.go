package client

import "github.com/quizwire/trivia-live/pkg/ws"

// ScoreboardView is a read-only projection of server-pushed scores. Ranking
// order is whatever the server returned; the client never re-sorts.
type ScoreboardView struct {
	entries []ws.ScoreEntry
}

// Update replaces the projection with the pushed scoreboard.
func (v *ScoreboardView) Update(entries []ws.ScoreEntry) {
	v.entries = entries
}

// Entries returns the current rows.
func (v *ScoreboardView) Entries() []ws.ScoreEntry {
	return v.entries
}

// RosterView is a read-only projection of the team roster.
type RosterView struct {
	teams []ws.Team
}

// Update replaces the projection with the pushed roster.
func (v *RosterView) Update(teams []ws.Team) {
	v.teams = teams
}

// Teams returns the current roster.
func (v *RosterView) Teams() []ws.Team {
	return v.teams
}
