package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"kplanning/internal/agenda"
	"kplanning/internal/autosave"
	"kplanning/internal/capture"
	"kplanning/internal/ics"
	"kplanning/internal/layout"
	appLog "kplanning/internal/log"
	"kplanning/internal/model"
	"kplanning/internal/store"
	"kplanning/internal/web"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the board and its API, saving changes on the autosave schedule.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if l := c.String("listen"); l != "" {
				cfg.Listen = l
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"data_file", cfg.DataFile,
				"autosave", cfg.Autosave,
				"week_start", cfg.WeekStart,
				"pixels_per_hour", cfg.PixelsPerHour,
				"snap_minutes", cfg.SnapMinutes,
				"basic_auth", cfg.BasicAuth != nil,
			)

			saver := autosave.New(st, cfg.DataFile)
			if err := saver.Start(cfg.Autosave); err != nil {
				return err
			}
			defer func() {
				if err := saver.Stop(); err != nil {
					appLog.Error("final save failed", err, "path", cfg.DataFile)
				}
			}()

			ctx, cancel := signalContext(c.Context)
			defer cancel()

			srv := web.NewServer(cfg, st)
			err = srv.Run(ctx)
			appLog.Info("kplanning exiting")
			return err
		},
	}
}

func agendaCommand() *cli.Command {
	return &cli.Command{
		Name:  "agenda",
		Usage: "Print the agenda of one day.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "Day to print as YYYY-MM-DD (default today)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}

			now := time.Now()
			day := now
			if v := c.String("date"); v != "" {
				if day, err = time.ParseInLocation("2006-01-02", v, time.Local); err != nil {
					return fmt.Errorf("invalid --date %q: %w", v, err)
				}
			}

			start, end := layout.DayWindow(day)
			laid := layout.BuildDay(start, st.Between(start, end), cfg.PixelsPerMinute())
			fmt.Fprint(c.App.Writer, agenda.Render(laid, now))
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the board as JSON or iCalendar.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "json", Usage: "json or ics"},
			&cli.StringFlag{Name: "out", Usage: "Output file (default stdout)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}

			var data []byte
			switch strings.ToLower(c.String("format")) {
			case "json":
				if data, err = json.MarshalIndent(st.Snapshot(), "", "  "); err != nil {
					return err
				}
			case "ics":
				data = []byte(ics.Export(st.Events(), time.Now()))
			default:
				return fmt.Errorf("unknown --format %q (json or ics)", c.String("format"))
			}

			return writeOut(c.App.Writer, c.String("out"), data)
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Replace the scheduled events with a JSON or .ics file, or a remote calendar.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "Local .json or .ics file"},
			&cli.StringFlag{Name: "url", Usage: "Remote .ics URL"},
		},
		Action: func(c *cli.Context) error {
			file, url := c.String("file"), c.String("url")
			if (file == "") == (url == "") {
				return fmt.Errorf("exactly one of --file or --url is required")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}

			var events []model.CalendarEvent
			switch {
			case url != "":
				body, err := ics.NewFetcher(nil).Fetch(c.Context, url)
				if err != nil {
					return err
				}
				if events, _, err = ics.Parse(body, ics.ParseOptions{}); err != nil {
					return err
				}
			case strings.EqualFold(filepath.Ext(file), ".ics"):
				body, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if events, _, err = ics.Parse(body, ics.ParseOptions{}); err != nil {
					return err
				}
			default:
				// Load treats a missing snapshot as empty; an import must not.
				if _, err := os.Stat(file); err != nil {
					return err
				}
				src := store.New()
				if err := src.Load(file); err != nil {
					return err
				}
				events = src.Events()
			}

			res := st.ImportEvents(events)
			if err := st.Save(cfg.DataFile); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "imported %d events (%d records, %d skipped)\n", res.Imported, res.Segments, res.Skipped)
			return nil
		},
	}
}

func captureCommand() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Screenshot the board page of a running server to PNG.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "Board URL (default http://<listen>/board)"},
			&cli.StringFlag{Name: "out", Value: "./board.png", Usage: "Output PNG path"},
			&cli.StringFlag{Name: "view", Value: "day", Usage: "day, week or month"},
			&cli.StringFlag{Name: "date", Usage: "Day as YYYY-MM-DD (default today)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			url := c.String("url")
			if url == "" {
				url = "http://" + cfg.Listen + "/board?view=" + c.String("view")
				if d := c.String("date"); d != "" {
					url += "&date=" + d
				}
			}

			opts := capture.Options{
				URL:        url,
				OutputPath: c.String("out"),
				Width:      cfg.Capture.Width,
				Height:     cfg.Capture.Height,
			}
			if cfg.BasicAuth != nil {
				opts.Username = cfg.BasicAuth.Username
				opts.Password = cfg.BasicAuth.Password
			}
			return capture.CaptureBoardPNG(c.Context, opts)
		},
	}
}

func writeOut(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	appLog.Info("export written", "path", path, "bytes", len(data))
	return nil
}
