package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/encounter/internal/game/character"
	"github.com/cory-johannsen/encounter/internal/game/combat"
)

// ErrSheetNotFound is returned when a character sheet lookup yields no rows.
var ErrSheetNotFound = errors.New("character sheet not found")

// SheetStore persists character sheets and post-combat results. The
// encounter engine treats the campaign database as an external system: it
// reads snapshots before combat and writes HP plus an encounter record after.
type SheetStore struct {
	db *pgxpool.Pool
}

// NewSheetStore creates a SheetStore backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSheetStore(db *pgxpool.Pool) *SheetStore {
	return &SheetStore{db: db}
}

// GetByID retrieves a character sheet by its identifier.
//
// Precondition: id must be non-empty.
// Postcondition: Returns the Sheet or ErrSheetNotFound.
func (s *SheetStore) GetByID(ctx context.Context, id string) (*character.Sheet, error) {
	var (
		sheet   character.Sheet
		hp      int
		actions []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, name, class, level, max_hp, current_hp, ac, speed,
		       strength, dexterity, constitution, intelligence, wisdom, charisma,
		       actions
		FROM character_sheets WHERE id = $1`,
		id,
	).Scan(
		&sheet.ID, &sheet.Name, &sheet.Class, &sheet.Level, &sheet.MaxHP, &hp,
		&sheet.AC, &sheet.Speed,
		&sheet.Abilities.Strength, &sheet.Abilities.Dexterity, &sheet.Abilities.Constitution,
		&sheet.Abilities.Intelligence, &sheet.Abilities.Wisdom, &sheet.Abilities.Charisma,
		&actions,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSheetNotFound
		}
		return nil, fmt.Errorf("querying character sheet: %w", err)
	}

	sheet.CurrentHP = &hp
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &sheet.Actions); err != nil {
			return nil, fmt.Errorf("decoding actions for sheet %q: %w", id, err)
		}
	}
	return &sheet, nil
}

// ListParty returns every sheet in the named party, ordered by id.
//
// Precondition: party must be non-empty.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (s *SheetStore) ListParty(ctx context.Context, party string) ([]*character.Sheet, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, class, level, max_hp, current_hp, ac, speed,
		       strength, dexterity, constitution, intelligence, wisdom, charisma,
		       actions
		FROM character_sheets WHERE party = $1 ORDER BY id ASC`,
		party,
	)
	if err != nil {
		return nil, fmt.Errorf("listing party %q: %w", party, err)
	}
	defer rows.Close()

	sheets := make([]*character.Sheet, 0)
	for rows.Next() {
		var (
			sheet   character.Sheet
			hp      int
			actions []byte
		)
		if err := rows.Scan(
			&sheet.ID, &sheet.Name, &sheet.Class, &sheet.Level, &sheet.MaxHP, &hp,
			&sheet.AC, &sheet.Speed,
			&sheet.Abilities.Strength, &sheet.Abilities.Dexterity, &sheet.Abilities.Constitution,
			&sheet.Abilities.Intelligence, &sheet.Abilities.Wisdom, &sheet.Abilities.Charisma,
			&actions,
		); err != nil {
			return nil, fmt.Errorf("scanning sheet row: %w", err)
		}
		sheet.CurrentHP = &hp
		if len(actions) > 0 {
			if err := json.Unmarshal(actions, &sheet.Actions); err != nil {
				return nil, fmt.Errorf("decoding actions for sheet %q: %w", sheet.ID, err)
			}
		}
		sheets = append(sheets, &sheet)
	}
	return sheets, rows.Err()
}

// Upsert inserts or replaces a character sheet in the given party.
//
// Precondition: sheet has passed Validate.
// Postcondition: A row with sheet.ID exists and reflects the sheet.
func (s *SheetStore) Upsert(ctx context.Context, sheet *character.Sheet, party string) error {
	actions, err := json.Marshal(sheet.Actions)
	if err != nil {
		return fmt.Errorf("encoding actions for sheet %q: %w", sheet.ID, err)
	}
	hp := sheet.MaxHP
	if sheet.CurrentHP != nil {
		hp = *sheet.CurrentHP
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO character_sheets
			(id, party, name, class, level, max_hp, current_hp, ac, speed,
			 strength, dexterity, constitution, intelligence, wisdom, charisma,
			 actions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO UPDATE SET
			party = EXCLUDED.party, name = EXCLUDED.name, class = EXCLUDED.class,
			level = EXCLUDED.level, max_hp = EXCLUDED.max_hp,
			current_hp = EXCLUDED.current_hp, ac = EXCLUDED.ac,
			speed = EXCLUDED.speed,
			strength = EXCLUDED.strength, dexterity = EXCLUDED.dexterity,
			constitution = EXCLUDED.constitution, intelligence = EXCLUDED.intelligence,
			wisdom = EXCLUDED.wisdom, charisma = EXCLUDED.charisma,
			actions = EXCLUDED.actions, updated_at = NOW()`,
		sheet.ID, party, sheet.Name, sheet.Class, sheet.Level, sheet.MaxHP, hp,
		sheet.AC, sheet.Speed,
		sheet.Abilities.Strength, sheet.Abilities.Dexterity, sheet.Abilities.Constitution,
		sheet.Abilities.Intelligence, sheet.Abilities.Wisdom, sheet.Abilities.Charisma,
		actions,
	)
	if err != nil {
		return fmt.Errorf("upserting character sheet %q: %w", sheet.ID, err)
	}
	return nil
}

// SyncCombatResult writes one finished encounter back to the store: each
// surviving player's current HP is updated, and an encounter record is
// inserted for the campaign layer (XP, loot, and narrative live elsewhere).
//
// Precondition: summary comes from a session in victory or defeat.
// Postcondition: All updates apply atomically, or none do.
func (s *SheetStore) SyncCombatResult(ctx context.Context, summary combat.Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding encounter summary: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning sync transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for _, survivor := range summary.Survivors {
		tag, err := tx.Exec(ctx, `
			UPDATE character_sheets SET current_hp = $2, updated_at = NOW()
			WHERE id = $1`,
			survivor.CombatantID, survivor.CurrentHP,
		)
		if err != nil {
			return fmt.Errorf("updating survivor %q: %w", survivor.CombatantID, err)
		}
		// Ad-hoc combatants without a stored sheet are skipped, not an error.
		_ = tag
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO encounters (id, outcome, rounds, summary)
		VALUES ($1, $2, $3, $4)`,
		summary.SessionID, summary.Outcome, summary.Rounds, payload,
	); err != nil {
		return fmt.Errorf("inserting encounter record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing sync transaction: %w", err)
	}
	return nil
}
