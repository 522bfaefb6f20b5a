package liar

import "fmt"

// Directory tracks who is in a room: players in join order, spectators who
// arrived after a round started, and which player is host.
type Directory struct {
	players    []Player
	spectators []Spectator
}

// Departure describes what Leave removed.
type Departure struct {
	Nickname  string
	Spectator bool
	WasHost   bool
	NewHost   *Player
}

// Join adds a participant. In the lobby they become a player (the first one
// is host); otherwise they spectate until the next lobby reset.
func (d *Directory) Join(id, nickname string, spectate bool) (bool, error) {
	if !ValidNickname(nickname) {
		return false, ErrInvalidNickname
	}

	if spectate {
		d.spectators = append(d.spectators, Spectator{ID: id, Nickname: nickname})
		return true, nil
	}

	if len(d.players) >= MaxPlayers {
		return false, fmt.Errorf("%d players already joined: %w", len(d.players), ErrRoomFull)
	}

	d.players = append(d.players, Player{
		ID:       id,
		Nickname: nickname,
		IsHost:   len(d.players) == 0,
	})

	return false, nil
}

// Leave removes id from whichever list holds it. When the host leaves, the
// first remaining player inherits the role.
func (d *Directory) Leave(id string) (Departure, bool) {
	for i, s := range d.spectators {
		if s.ID == id {
			d.spectators = append(d.spectators[:i], d.spectators[i+1:]...)
			return Departure{Nickname: s.Nickname, Spectator: true}, true
		}
	}

	for i, p := range d.players {
		if p.ID != id {
			continue
		}

		d.players = append(d.players[:i], d.players[i+1:]...)

		dep := Departure{Nickname: p.Nickname, WasHost: p.IsHost}
		if p.IsHost && len(d.players) > 0 {
			d.players[0].IsHost = true
			host := d.players[0]
			dep.NewHost = &host
		}

		return dep, true
	}

	return Departure{}, false
}

// PromoteSpectators moves waiting spectators into the player list with a
// zero score, up to MaxPlayers. Anyone over the cap keeps spectating.
func (d *Directory) PromoteSpectators() []Player {
	var promoted []Player

	rest := d.spectators[:0]
	for _, s := range d.spectators {
		if len(d.players) >= MaxPlayers {
			rest = append(rest, s)
			continue
		}

		p := Player{ID: s.ID, Nickname: s.Nickname, IsHost: len(d.players) == 0}
		d.players = append(d.players, p)
		promoted = append(promoted, p)
	}
	d.spectators = rest

	return promoted
}

func (d *Directory) HostID() string {
	for _, p := range d.players {
		if p.IsHost {
			return p.ID
		}
	}
	return ""
}

func (d *Directory) IsHost(id string) bool {
	return id != "" && d.HostID() == id
}

func (d *Directory) Player(id string) (Player, bool) {
	for _, p := range d.players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

func (d *Directory) IsPlayer(id string) bool {
	_, ok := d.Player(id)
	return ok
}

func (d *Directory) IsSpectator(id string) bool {
	for _, s := range d.spectators {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Nickname looks id up among players and spectators.
func (d *Directory) Nickname(id string) string {
	if p, ok := d.Player(id); ok {
		return p.Nickname
	}
	for _, s := range d.spectators {
		if s.ID == id {
			return s.Nickname
		}
	}
	return ""
}

func (d *Directory) Players() []Player {
	return append([]Player(nil), d.players...)
}

func (d *Directory) Spectators() []Spectator {
	return append([]Spectator(nil), d.spectators...)
}

func (d *Directory) PlayerIDs() []string {
	ids := make([]string, len(d.players))
	for i, p := range d.players {
		ids[i] = p.ID
	}
	return ids
}

func (d *Directory) Len() int { return len(d.players) }

// SetScores overwrites scores for the players listed.
func (d *Directory) SetScores(scores []PlayerScore) {
	for _, s := range scores {
		for i := range d.players {
			if d.players[i].ID == s.ID {
				d.players[i].Score = s.Score
			}
		}
	}
}
