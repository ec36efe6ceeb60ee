// Package main provides the encounter binary: it assembles a party and a
// set of monsters, runs one combat session to completion, and prints the
// narrative log plus the post-combat summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/config"
	"github.com/cory-johannsen/encounter/internal/game/character"
	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/condition"
	"github.com/cory-johannsen/encounter/internal/game/dice"
	"github.com/cory-johannsen/encounter/internal/game/monster"
	"github.com/cory-johannsen/encounter/internal/game/tactic"
	"github.com/cory-johannsen/encounter/internal/observability"
	"github.com/cory-johannsen/encounter/internal/scripting"
	"github.com/cory-johannsen/encounter/internal/storage/postgres"
)

// maxTurnSteps bounds the number of submissions a single combatant may make
// on one turn so a misbehaving tactic script cannot stall the encounter.
const maxTurnSteps = 8

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	partyPath := flag.String("party", "", "path to a party YAML file")
	dbParty := flag.String("db-party", "", "load the party from the database instead of a file")
	monsterSpec := flag.String("monsters", "", "comma-separated monster templates, e.g. goblin:2,skeleton_archer")
	maxRounds := flag.Int("max-rounds", 100, "abort the encounter after this many rounds")
	syncDB := flag.Bool("sync-db", false, "write survivor HP and the encounter record to the database")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if *monsterSpec == "" {
		logger.Fatal("no monsters requested; pass -monsters")
	}
	if (*partyPath == "") == (*dbParty == "") {
		logger.Fatal("exactly one of -party or -db-party must be given")
	}

	var src dice.Source
	if cfg.Combat.Seed != 0 {
		src = dice.NewSeededSource(cfg.Combat.Seed)
		logger.Info("using seeded dice", zap.Int64("seed", cfg.Combat.Seed))
	} else {
		src = dice.NewCryptoSource()
	}
	roller := dice.NewLoggedRoller(src, logger)

	// Condition definitions: built-ins unless a directory overrides them.
	conditions := condition.Defaults()
	if cfg.Combat.ConditionsDir != "" {
		conditions, err = condition.LoadDirectory(cfg.Combat.ConditionsDir)
		if err != nil {
			logger.Fatal("loading condition definitions", zap.Error(err))
		}
		logger.Info("loaded condition definitions",
			zap.String("dir", cfg.Combat.ConditionsDir),
			zap.Int("count", len(conditions.All())),
		)
	}

	bestiary, err := monster.LoadRegistry(cfg.Combat.MonstersDir)
	if err != nil {
		logger.Fatal("loading monster templates", zap.Error(err))
	}
	logger.Info("loaded monster templates",
		zap.String("dir", cfg.Combat.MonstersDir),
		zap.Int("count", bestiary.Len()),
	)

	// Tactic scripts are optional; without them scripted tactics fall back
	// to basic_melee.
	var scriptMgr *scripting.Manager
	if cfg.Combat.ScriptsDir != "" {
		scriptStart := time.Now()
		scriptMgr = scripting.NewManager(roller, logger)
		defer scriptMgr.Close()
		if err := scriptMgr.LoadDirectory(cfg.Combat.ScriptsDir, cfg.Combat.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading tactic scripts",
				zap.String("dir", cfg.Combat.ScriptsDir), zap.Error(err))
		}
		logger.Info("tactic scripts loaded",
			zap.String("dir", cfg.Combat.ScriptsDir),
			zap.Duration("elapsed", time.Since(scriptStart)),
		)
	}

	// The database is only dialed when the party lives there or results
	// should be written back.
	var sheetStore *postgres.SheetStore
	if *dbParty != "" || *syncDB {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		sheetStore = postgres.NewSheetStore(pool.DB())
	}

	players, err := loadParty(ctx, *partyPath, *dbParty, sheetStore)
	if err != nil {
		logger.Fatal("loading party", zap.Error(err))
	}
	monsters, err := spawnMonsters(bestiary, *monsterSpec)
	if err != nil {
		logger.Fatal("spawning monsters", zap.Error(err))
	}

	roster := append(players, monsters...)
	session, err := combat.NewSession(roster, roller, logger, conditions,
		cfg.Combat.MovementCost, combat.WithLogWindow(cfg.Combat.LogWindow))
	if err != nil {
		logger.Fatal("creating combat session", zap.Error(err))
	}

	logger.Info("encounter assembled",
		zap.String("session", session.ID),
		zap.Int("players", len(players)),
		zap.Int("monsters", len(monsters)),
		zap.Duration("startup", time.Since(start)),
	)

	if err := session.Start(); err != nil {
		logger.Fatal("starting combat", zap.Error(err))
	}

	decider := tactic.NewEngine(scriptMgr, logger)
	runEncounter(session, decider, roster, *maxRounds, logger)

	for _, line := range session.FullLog() {
		fmt.Fprintln(os.Stdout, line)
	}

	summary, err := session.Summary()
	if err != nil {
		logger.Fatal("encounter did not finish", zap.Error(err),
			zap.Int("max_rounds", *maxRounds))
	}
	printSummary(summary)

	if *syncDB {
		if err := sheetStore.SyncCombatResult(ctx, summary); err != nil {
			logger.Fatal("syncing combat result", zap.Error(err))
		}
		logger.Info("combat result synced", zap.String("session", summary.SessionID))
	}

	if summary.Outcome == "defeat" {
		os.Exit(1)
	}
}

// runEncounter drives every combatant with the tactic engine until the
// session ends or maxRounds is exceeded. Player-side combatants carry no
// tactic and are auto-played as basic_melee.
func runEncounter(session *combat.Session, decider *tactic.Engine,
	roster []*combat.Combatant, maxRounds int, logger *zap.Logger) {

	for session.State() == combat.StateInProgress && session.Round() <= maxRounds {
		actor := session.CurrentActor()
		if actor == nil {
			return
		}

		for step := 0; step < maxTurnSteps; step++ {
			d := decider.Decide(actor, roster)
			if d.Pass {
				break
			}
			result := session.SubmitNamed(actor.ID, d.Action, d.TargetID)
			if result.Declined {
				logger.Debug("submission declined, ending turn",
					zap.String("actor", actor.ID),
					zap.String("action", d.Action),
					zap.String("reason", string(result.Reason)),
				)
				break
			}
			if session.State() != combat.StateInProgress {
				return
			}
		}
		session.EndTurn()
	}
}

// loadParty builds the player-side combatants from a YAML file or from the
// database, depending on which flag was given.
func loadParty(ctx context.Context, path, dbParty string, store *postgres.SheetStore) ([]*combat.Combatant, error) {
	if path != "" {
		party, err := character.LoadParty(path)
		if err != nil {
			return nil, err
		}
		return party.Combatants(), nil
	}

	sheets, err := store.ListParty(ctx, dbParty)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("party %q has no characters", dbParty)
	}
	combatants := make([]*combat.Combatant, 0, len(sheets))
	for _, sheet := range sheets {
		if err := sheet.Validate(); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.ID, err)
		}
		combatants = append(combatants, sheet.NewCombatant())
	}
	return combatants, nil
}

// spawnMonsters instantiates combatants from a spec like
// "goblin:2,skeleton_archer". Counted spawns get numbered names.
func spawnMonsters(bestiary *monster.Registry, spec string) ([]*combat.Combatant, error) {
	var out []*combat.Combatant
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, count := entry, 1
		if i := strings.IndexByte(entry, ':'); i >= 0 {
			n, err := strconv.Atoi(entry[i+1:])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid monster count in %q", entry)
			}
			id, count = entry[:i], n
		}

		tmpl, ok := bestiary.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown monster template %q", id)
		}
		for i := 0; i < count; i++ {
			name := tmpl.Name
			if count > 1 {
				name = fmt.Sprintf("%s %d", tmpl.Name, i+1)
			}
			out = append(out, tmpl.NewCombatant(name))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("monster spec %q produced no combatants", spec)
	}
	return out, nil
}

func printSummary(sum combat.Summary) {
	fmt.Fprintf(os.Stdout, "\n=== %s after %d round(s) ===\n",
		strings.ToUpper(sum.Outcome), sum.Rounds)
	for _, s := range sum.Survivors {
		fmt.Fprintf(os.Stdout, "  %s: %d/%d HP\n", s.CombatantID, s.CurrentHP, s.MaxHP)
	}
	for _, id := range sum.FallenPlayers {
		fmt.Fprintf(os.Stdout, "  %s: fallen\n", id)
	}
	if len(sum.DefeatedMonsters) > 0 {
		fmt.Fprintf(os.Stdout, "  defeated: %s\n", strings.Join(sum.DefeatedMonsters, ", "))
	}
}
