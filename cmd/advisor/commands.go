package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/config"
	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/storage"
	"github.com/cory-johannsen/altai/internal/storage/postgres"
	"github.com/cory-johannsen/altai/internal/storage/sqlite"
)

func withSession(opts *options, run func(cmd *cobra.Command, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(opts, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer s.close()
		return run(cmd, s)
	}
}

func newResearchCmd(opts *options) *cobra.Command {
	var ignore string
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Select the technology to research next",
	}
	cmd.Flags().StringVar(&ignore, "ignore", "", "tech key never to select")
	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		skip := rules.NoTech
		if ignore != "" {
			id, ok := s.rules.Lookup(ignore)
			if !ok || s.rules.Tech(rules.TechType(id)) == nil {
				return fmt.Errorf("unknown tech %q", ignore)
			}
			skip = rules.TechType(id)
		}
		l := s.beginPass("research")
		choice := s.tactics.ResearchTech(skip)
		l.Info("research selected", zap.String("tech", s.rules.TechKey(choice.Tech)), zap.Int("depth", choice.Depth))
		s.renderResearch(choice)
		return nil
	})
	return cmd
}

func newBuildCmd(opts *options) *cobra.Command {
	var city int
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Select what each city should construct",
	}
	cmd.Flags().IntVar(&city, "city", int(civ.NoCity), "city id; omitted advises every city")
	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		l := s.beginPass("build")
		var rows []buildRow
		for _, c := range s.player.Cities() {
			if city != int(civ.NoCity) && c.ID != civ.CityID(city) {
				continue
			}
			item, err := s.tactics.BuildItem(c.ID)
			if err != nil {
				return err
			}
			l.Info("build selected", zap.Int("city", int(c.ID)), zap.Stringer("item", item))
			rows = append(rows, buildRow{city: c, item: item})
		}
		if len(rows) == 0 {
			return fmt.Errorf("player %d has no city %d", s.player.ID, city)
		}
		s.renderBuild(rows)
		return nil
	})
	return cmd
}

func newSpecialistCmd(opts *options) *cobra.Command {
	var unit string
	cmd := &cobra.Command{
		Use:   "specialist",
		Short: "Decide whether a great person settles or discovers",
	}
	cmd.Flags().StringVar(&unit, "unit", "", "great person unit key")
	_ = cmd.MarkFlagRequired("unit")
	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		id, ok := s.rules.Lookup(unit)
		if !ok || s.rules.Unit(rules.UnitType(id)) == nil {
			return fmt.Errorf("unknown unit %q", unit)
		}
		l := s.beginPass("specialist")
		choice, settle := s.tactics.SpecialistBuild(rules.UnitType(id))
		l.Info("specialist decided", zap.String("unit", unit), zap.Bool("settle", settle))
		s.renderSpecialist(unit, choice, settle)
		return nil
	})
	return cmd
}

func newSaveCmd(opts *options) *cobra.Command {
	var game string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Persist the player's tactics through the configured storage driver",
	}
	cmd.Flags().StringVar(&game, "game", "", "game id; empty generates a new one")
	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		id := uuid.New()
		if game != "" {
			var err error
			if id, err = uuid.Parse(game); err != nil {
				return fmt.Errorf("parsing game id: %w", err)
			}
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		store, err := openStore(ctx, s.cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		var buf bytes.Buffer
		if err := s.tactics.Encode(&buf); err != nil {
			return fmt.Errorf("encoding tactics: %w", err)
		}
		snap := storage.Snapshot{Game: id, Player: s.player.ID, Turn: s.turn, Data: buf.Bytes()}
		if err := store.Save(ctx, snap); err != nil {
			return err
		}
		s.beginPass("save").Info("snapshot saved", zap.String("game", id.String()), zap.Int("bytes", buf.Len()))
		s.renderSaved(snap)
		return nil
	})
	return cmd
}

// errNoStorage is returned by save when storage.driver is none.
var errNoStorage = errors.New("storage.driver is none; nothing to save to")

func openStore(ctx context.Context, cfg config.Config) (storage.SnapshotStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		repo, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return st, nil
	}
	return nil, errNoStorage
}
