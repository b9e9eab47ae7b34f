package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics"
	"github.com/cory-johannsen/altai/internal/storage"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
)

func (s *session) heading(what string) {
	titleColor.Fprintf(s.out, "\n%s | %s | turn %d\n", what, s.player.Name, s.turn)
}

func (s *session) renderResearch(choice tactics.ResearchTech) {
	s.heading("Research")
	if choice.Tech == rules.NoTech {
		warnColor.Fprintln(s.out, "nothing left to research")
		return
	}
	info := s.rules.Tech(choice.Tech)
	target := "-"
	if choice.Target != rules.NoTech {
		target = s.rules.TechKey(choice.Target)
	}
	table := tablewriter.NewTable(s.out,
		tablewriter.WithHeader([]string{"Tech", "Depth", "Leads To", "Cost", "Turns"}),
	)
	table.Append([]string{
		info.Key,
		strconv.Itoa(choice.Depth),
		target,
		strconv.Itoa(info.Cost),
		strconv.Itoa(s.player.ResearchTurns(info)),
	})
	table.Render()
}

type buildRow struct {
	city *civ.City
	item tactics.ConstructItem
}

func (s *session) describe(item tactics.ConstructItem) (kind, key, target string) {
	target = "-"
	switch {
	case item.Building != rules.NoBuilding:
		kind, key = "building", s.rules.BuildingKey(item.Building)
		if item.BuildTarget != rules.NoBuilding {
			target = s.rules.BuildingKey(item.BuildTarget)
		}
	case item.Unit != rules.NoUnit:
		kind, key = "unit", s.rules.UnitKey(item.Unit)
	case item.Process != rules.NoProcess:
		kind, key = "process", s.rules.ProcessKey(item.Process)
	case item.Project != rules.NoProject:
		kind, key = "project", fmt.Sprintf("PROJECT_%d", item.Project)
	default:
		kind, key = "-", "nothing"
	}
	return kind, key, target
}

func (s *session) renderBuild(rows []buildRow) {
	s.heading("Build")
	table := tablewriter.NewTable(s.out,
		tablewriter.WithHeader([]string{"City", "Name", "Kind", "Item", "Prerequisite For"}),
	)
	for _, r := range rows {
		kind, key, target := s.describe(r.item)
		table.Append([]string{strconv.Itoa(int(r.city.ID)), r.city.Name, kind, key, target})
	}
	table.Render()
}

func (s *session) renderSpecialist(unit string, choice tactics.SpecialistChoice, settle bool) {
	s.heading("Great person " + unit)
	if choice.Specialist == rules.NoSpecialist {
		warnColor.Fprintf(s.out, "%s cannot settle as a specialist\n", unit)
		return
	}
	decision := "discover"
	if settle {
		decision = "settle"
	}
	city := "-"
	if c, ok := s.player.City(choice.City); ok {
		city = c.Name
	}
	table := tablewriter.NewTable(s.out,
		tablewriter.WithHeader([]string{"Decision", "Specialist", "City", "Settle Value", "Discover Value"}),
	)
	table.Append([]string{
		decision,
		s.rules.Specialist(choice.Specialist).Key,
		city,
		fmt.Sprintf("%.1f", choice.Value),
		fmt.Sprintf("%.1f", choice.Alternative),
	})
	table.Render()
}

func (s *session) renderSaved(snap storage.Snapshot) {
	successColor.Fprintf(s.out, "\nsaved %d bytes\n", len(snap.Data))
	fmt.Fprintf(s.out, "   game:   %s\n", snap.Game)
	fmt.Fprintf(s.out, "   player: %d\n", snap.Player)
	fmt.Fprintf(s.out, "   turn:   %d\n", snap.Turn)
}
