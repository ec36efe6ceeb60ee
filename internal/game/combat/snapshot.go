package combat

// CombatantView is the render-ready view of one combatant: everything a
// presentation layer needs and nothing it can mutate.
type CombatantView struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Side               string   `json:"side"`
	CurrentHP          int      `json:"hp"`
	MaxHP              int      `json:"max_hp"`
	TempHP             int      `json:"temp_hp,omitempty"`
	AC                 int      `json:"ac"`
	Position           string   `json:"position"`
	Conditions         []string `json:"conditions,omitempty"`
	Alive              bool     `json:"is_alive"`
	Dead               bool     `json:"is_dead"`
	ActionAvailable    bool     `json:"has_action"`
	BonusAvailable     bool     `json:"has_bonus"`
	ReactionAvailable  bool     `json:"has_reaction"`
	MovementRemaining  int      `json:"movement"`
	DeathSaveSuccesses int      `json:"death_save_successes,omitempty"`
	DeathSaveFailures  int      `json:"death_save_failures,omitempty"`
}

// Snapshot is the session-state view handed to presentation layers: the
// cursor, per-combatant state, and the trailing window of the combat log.
type Snapshot struct {
	SessionID      string          `json:"session_id"`
	State          string          `json:"state"`
	Round          int             `json:"round"`
	TurnIndex      int             `json:"turn_index"`
	CurrentActorID string          `json:"current_actor,omitempty"`
	TurnOrder      []string        `json:"turn_order"`
	Combatants     []CombatantView `json:"combatants"`
	Log            []string        `json:"log"`
}

// Snapshot renders the current session state. The log is capped to the
// configured display window; FullLog returns the uncapped history.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID: s.ID,
		State:     s.state.String(),
		Round:     s.round,
		TurnIndex: s.turnIndex,
		TurnOrder: s.TurnOrder(),
	}
	if actor := s.CurrentActor(); actor != nil {
		snap.CurrentActorID = actor.ID
	}
	for _, c := range s.combatants {
		snap.Combatants = append(snap.Combatants, CombatantView{
			ID:                 c.ID,
			Name:               c.Name,
			Side:               c.Side.String(),
			CurrentHP:          c.CurrentHP,
			MaxHP:              c.MaxHP,
			TempHP:             c.TempHP,
			AC:                 c.AC,
			Position:           c.Position.String(),
			Conditions:         c.Conditions.IDs(),
			Alive:              c.IsAlive(),
			Dead:               c.IsDead(),
			ActionAvailable:    !c.ActionUsed,
			BonusAvailable:     !c.BonusUsed,
			ReactionAvailable:  !c.ReactionUsed,
			MovementRemaining:  c.MovementRemaining,
			DeathSaveSuccesses: c.DeathSaveSuccesses,
			DeathSaveFailures:  c.DeathSaveFailures,
		})
	}

	window := s.logWindow
	if window > len(s.log) {
		window = len(s.log)
	}
	snap.Log = make([]string, window)
	copy(snap.Log, s.log[len(s.log)-window:])
	return snap
}

// SurvivorHP records a surviving player-side combatant's final hit points
// for the external persistence sync.
type SurvivorHP struct {
	CombatantID string `json:"combatant_id"`
	CurrentHP   int    `json:"current_hp"`
	MaxHP       int    `json:"max_hp"`
}

// Summary is the post-combat report produced once the session reaches
// victory or defeat: defeated monster IDs feed the external XP/loot service,
// surviving player HP feeds the external persistence sync.
type Summary struct {
	SessionID        string       `json:"session_id"`
	Outcome          string       `json:"outcome"`
	Rounds           int          `json:"rounds"`
	DefeatedMonsters []string     `json:"defeated_monsters"`
	FallenPlayers    []string     `json:"fallen_players"`
	Survivors        []SurvivorHP `json:"survivors"`
}

// Summary builds the post-combat summary.
//
// Precondition: the session has reached victory or defeat.
func (s *Session) Summary() (Summary, error) {
	if s.state != StateVictory && s.state != StateDefeat {
		return Summary{}, errSessionNotOver(s.state)
	}
	sum := Summary{
		SessionID: s.ID,
		Outcome:   s.state.String(),
		Rounds:    s.round,
	}
	for _, c := range s.combatants {
		switch {
		case !c.IsPlayer() && c.IsDead():
			sum.DefeatedMonsters = append(sum.DefeatedMonsters, c.ID)
		case c.IsPlayer() && c.IsDead():
			sum.FallenPlayers = append(sum.FallenPlayers, c.ID)
		case c.IsPlayer():
			sum.Survivors = append(sum.Survivors, SurvivorHP{
				CombatantID: c.ID,
				CurrentHP:   c.CurrentHP,
				MaxHP:       c.MaxHP,
			})
		}
	}
	return sum, nil
}
