package main

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/config"
	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics"
	"github.com/cory-johannsen/altai/internal/observability"
	"github.com/cory-johannsen/altai/internal/scripting"
)

// session is one advisor run: loaded data plus the advised player's tactics.
type session struct {
	cfg     config.Config
	logger  *zap.Logger
	rules   *rules.Rules
	turn    int
	player  *civ.Player
	tactics *tactics.PlayerTactics
	scripts *scripting.Manager
	out     io.Writer
}

// openSession loads configuration, rules and scenario and refreshes the
// player's tactics for the scenario turn.
//
// Postcondition: the caller must call close on a non-nil session.
func openSession(opts *options, out io.Writer) (*session, error) {
	start := time.Now()

	cfg := config.Defaults()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	r, err := rules.LoadDir(opts.rulesDir)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	scen, err := civ.LoadScenario(opts.scenarioPath, r)
	if err != nil {
		return nil, fmt.Errorf("loading scenario: %w", err)
	}
	p, ok := scen.Player(civ.PlayerID(opts.player))
	if !ok {
		return nil, fmt.Errorf("scenario %s has no player %d", opts.scenarioPath, opts.player)
	}

	pc, err := tactics.NewPlayerContext(p, r, projection.NewSimpleEngine(r), cfg.Tactics, logger)
	if err != nil {
		return nil, fmt.Errorf("building player context: %w", err)
	}
	pc.Sites = tactics.ScoutedSites{Player: p}

	s := &session{
		cfg:    cfg,
		logger: logger,
		rules:  r,
		turn:   scen.Turn,
		player: p,
		out:    out,
	}
	if cfg.Scripting.ScriptDir != "" {
		s.scripts = scripting.NewManager(logger)
		if err := s.scripts.LoadDir(cfg.Scripting.ScriptDir, cfg.Scripting.InstructionLimit); err != nil {
			s.close()
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
		pc.Weights = s.scripts
	}

	s.tactics = tactics.NewPlayerTactics(pc)
	s.beginPass("refresh")
	s.tactics.Refresh(s.turn)

	logger.Info("session ready",
		zap.String("player", p.Name),
		zap.Int("turn", s.turn),
		zap.Int("cities", len(p.Cities())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s, nil
}

// beginPass tags the engine's log lines with a fresh pass id.
func (s *session) beginPass(pass string) *zap.Logger {
	l := observability.PassLogger(s.logger, int(s.player.ID), s.turn, pass)
	s.tactics.Context().Logger = l
	return l
}

func (s *session) close() {
	if s.scripts != nil {
		s.scripts.Close()
	}
	_ = s.logger.Sync()
}
