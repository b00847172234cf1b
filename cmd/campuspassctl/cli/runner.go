package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/pflag"

	"github.com/campuspass/campuspass-admin/internal/tableview"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
)

// Jobs is the queue surface the warmup and queue commands use.
type Jobs interface {
	Warmup(ctx context.Context, invalidate bool) (*asynq.TaskInfo, error)
	InspectQueue(ctx context.Context) (QueueStats, error)
	Close() error
}

// Runner dispatches subcommands. The open hooks connect to the real backends
// in production and are replaced in tests.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Now    func() time.Time

	OpenSnapshots func(ctx context.Context, dsn, redisAddr string) (Snapshots, func(), error)
	OpenJobs      func(redisAddr string) Jobs
	OpenPDF       func(gotenbergURL string) tableview.PDFRenderer
}

const usage = `usage: campuspassctl <command> [flags]

commands:
  screens   list screens and their filter keys
  export    write a filtered CSV or PDF export of a screen
  warmup    enqueue a snapshot warmup job
  queue     print the job queue state
`

// Run executes args[0] with the remaining flags and returns the exit code.
func (r Runner) Run(ctx context.Context, args []string) int {
	if r.Stdout == nil {
		r.Stdout = os.Stdout
	}
	if r.Stderr == nil {
		r.Stderr = os.Stderr
	}
	if len(args) == 0 {
		fmt.Fprint(r.Stderr, usage)
		return ExitError
	}
	switch args[0] {
	case "screens":
		fs, zone := r.flagSet("screens")
		if err := fs.Parse(args[1:]); err != nil {
			return ExitError
		}
		display, code := r.display(*zone)
		if code != ExitOK {
			return code
		}
		return ScreensCommand(r.Stdout, display)
	case "export":
		return r.export(ctx, args[1:])
	case "warmup":
		return r.warmup(ctx, args[1:])
	case "queue":
		return r.queue(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(r.Stdout, usage)
		return ExitOK
	default:
		fmt.Fprintf(r.Stderr, "unknown command %q\n%s", args[0], usage)
		return ExitError
	}
}

func (r Runner) flagSet(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(r.Stderr)
	zone := fs.String("timezone", envOr("DISPLAY_TIMEZONE", timefmt.DefaultZone), "display timezone")
	return fs, zone
}

func (r Runner) display(zone string) (*timefmt.Display, int) {
	display, err := timefmt.NewDisplay(zone)
	if err != nil {
		fmt.Fprintf(r.Stderr, "invalid --timezone %q: %v\n", zone, err)
		return nil, ExitError
	}
	return display, ExitOK
}

func (r Runner) export(ctx context.Context, args []string) int {
	fs, zone := r.flagSet("export")
	profilePath := fs.String("profile", "", "YAML export profile")
	screen := fs.String("screen", "", "screen to export (logs, visits, reports)")
	format := fs.StringP("format", "f", "", "csv or pdf")
	search := fs.String("search", "", "free-text search")
	filters := fs.StringToString("filter", nil, "filter as key=value, repeatable")
	output := fs.StringP("output", "o", "", "output file or directory, - for stdout")
	dsn := fs.String("dsn", envOr("PG_DSN", ""), "postgres DSN")
	redisAddr := fs.String("redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address")
	gotenberg := fs.String("gotenberg", envOr("GOTENBERG_URL", "http://127.0.0.1:3000"), "gotenberg URL")
	if err := fs.Parse(args); err != nil {
		return ExitError
	}
	display, code := r.display(*zone)
	if code != ExitOK {
		return code
	}

	var profile Profile
	if *profilePath != "" {
		p, err := LoadProfile(*profilePath)
		if err != nil {
			fmt.Fprintf(r.Stderr, "export: %v\n", err)
			return ExitError
		}
		profile = p
	}
	profile = profile.merge(Profile{Screen: *screen, Format: *format, Search: *search, Filters: *filters, Output: *output})
	if profile.Screen == "" {
		fmt.Fprintln(r.Stderr, "export: --screen or a profile screen is required")
		return ExitError
	}
	if r.OpenSnapshots == nil {
		fmt.Fprintln(r.Stderr, "export: snapshot source not available")
		return ExitError
	}
	snapshots, closeFn, err := r.OpenSnapshots(ctx, *dsn, *redisAddr)
	if err != nil {
		fmt.Fprintf(r.Stderr, "export: %v\n", err)
		return ExitError
	}
	if closeFn != nil {
		defer closeFn()
	}
	var pdf tableview.PDFRenderer
	if r.OpenPDF != nil && profile.Format == "pdf" {
		pdf = r.OpenPDF(*gotenberg)
	}
	return ExportCommand(ctx, ExportOptions{
		Profile:   profile,
		Snapshots: snapshots,
		PDF:       pdf,
		Display:   display,
		Logger:    r.Logger,
		Now:       r.Now,
		Stdout:    r.Stdout,
		Stderr:    r.Stderr,
	})
}

func (r Runner) jobs(name string, args []string, extra func(*pflag.FlagSet)) (Jobs, int) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(r.Stderr)
	redisAddr := fs.String("redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address")
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, ExitError
	}
	if r.OpenJobs == nil {
		fmt.Fprintf(r.Stderr, "%s: job queue not available\n", name)
		return nil, ExitError
	}
	return r.OpenJobs(*redisAddr), ExitOK
}

func (r Runner) warmup(ctx context.Context, args []string) int {
	var invalidate bool
	jobs, code := r.jobs("warmup", args, func(fs *pflag.FlagSet) {
		fs.BoolVar(&invalidate, "invalidate", false, "drop cached snapshots before reloading")
	})
	if code != ExitOK {
		return code
	}
	defer func() { _ = jobs.Close() }()
	info, err := jobs.Warmup(ctx, invalidate)
	if err != nil {
		fmt.Fprintf(r.Stderr, "warmup: %v\n", err)
		return ExitError
	}
	fmt.Fprintf(r.Stdout, "enqueued %s on %s (invalidate=%t)\n", info.ID, info.Queue, invalidate)
	return ExitOK
}

func (r Runner) queue(ctx context.Context, args []string) int {
	jobs, code := r.jobs("queue", args, nil)
	if code != ExitOK {
		return code
	}
	defer func() { _ = jobs.Close() }()
	stats, err := jobs.InspectQueue(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "queue: %v\n", err)
		return ExitError
	}
	enc := json.NewEncoder(r.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		return ExitError
	}
	return ExitOK
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
