package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"schedule-viewer/logger"
	"schedule-viewer/models"
	"schedule-viewer/services"
)

var exportOpts struct {
	feed    string
	out     string
	day     string
	filters []string
	join    string
	ics     bool
	week    string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a filtered schedule to xlsx (and optionally ics) without the server",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOpts.feed, "feed", "events.json", "schedule feed (JSON array)")
	f.StringVar(&exportOpts.out, "out", ".", "output directory")
	f.StringVar(&exportOpts.day, "day", "all", "day of week 1..7 or all")
	f.StringArrayVar(&exportOpts.filters, "filter", nil, "filter clause field=value, repeatable")
	f.StringVar(&exportOpts.join, "join", "and", "how --filter clauses are joined: and|or")
	f.BoolVar(&exportOpts.ics, "ics", false, "also write an ics calendar")
	f.StringVar(&exportOpts.week, "week", "", "calendar week anchor YYYY-MM-DD (default: this week)")
	rootCmd.AddCommand(exportCmd)
}

// parseFilterFlag разбирает "field=value"
func parseFilterFlag(raw string, join models.JoinOperator) (models.FilterClause, error) {
	name, value, ok := strings.Cut(raw, "=")
	if !ok {
		return models.FilterClause{}, fmt.Errorf("filter %q: expected field=value", raw)
	}
	field, err := models.ParseFilterField(name)
	if err != nil {
		return models.FilterClause{}, err
	}
	return models.FilterClause{Field: field, Value: value, Join: join}, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("export")

	day, err := models.ParseDaySelection(exportOpts.day)
	if err != nil {
		return err
	}
	join, err := models.ParseJoinOperator(exportOpts.join)
	if err != nil {
		return err
	}
	clauses := make([]models.FilterClause, 0, len(exportOpts.filters))
	for _, raw := range exportOpts.filters {
		clause, err := parseFilterFlag(raw, join)
		if err != nil {
			return err
		}
		clauses = append(clauses, clause)
	}

	session := services.NewSession(services.SessionConfig{
		Window:           cfg.Window(),
		Location:         cfg.Location(),
		RejectDegenerate: cfg.FeedRejectDegenerate,
	}, time.Now, log, nil)
	if err := session.Load(context.Background(), services.FileFeed{Path: exportOpts.feed}); err != nil {
		return err
	}
	if _, err := session.SelectDay(day); err != nil {
		return err
	}
	view, err := session.ApplyFilters(clauses)
	if err != nil {
		return err
	}
	log.Infof("%s", view.Summary)

	if err := os.MkdirAll(exportOpts.out, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	loc := cfg.Location()
	wb, err := services.NewExportService(func() time.Time { return time.Now().In(loc) }).BuildWorkbook(view.Entries)
	if err != nil {
		return err
	}
	path := filepath.Join(exportOpts.out, wb.FileName)
	if err := os.WriteFile(path, wb.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, %d course sheets\n", path, wb.Entries, wb.Courses)

	if !exportOpts.ics {
		return nil
	}
	calendar := services.NewCalendarService(loc, 0, time.Now, log)
	weekOf, err := calendar.ParseWeek(exportOpts.week)
	if err != nil {
		return err
	}
	cal, err := calendar.BuildCalendar(view.Entries, weekOf)
	if err != nil {
		return err
	}
	path = filepath.Join(exportOpts.out, cal.FileName)
	if err := os.WriteFile(path, cal.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d events, %d skipped\n", path, cal.Events, cal.Skipped)
	return nil
}
