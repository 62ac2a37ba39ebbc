package cli

import (
	"context"
	"flag"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/peterbourgon/ff/ffyaml"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/remixlab/mixctl/pkg/cmd/analyze"
	catalogcmd "github.com/remixlab/mixctl/pkg/cmd/catalog"
	"github.com/remixlab/mixctl/pkg/cmd/download"
	"github.com/remixlab/mixctl/pkg/cmd/generate"
	"github.com/remixlab/mixctl/pkg/cmd/play"
	"github.com/remixlab/mixctl/pkg/cmd/remix"
	"github.com/remixlab/mixctl/pkg/cmd/sessionlog"
	"github.com/remixlab/mixctl/pkg/cmd/web"
)

func New(version, commit, date string) *ffcli.Command {
	fs := flag.NewFlagSet("mixctl", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "mixctl [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(version, commit, date),
			newCatalogCommand(),
			newGenerateCommand(),
			newRemixCommand(),
			newAnalyzeCommand(),
			newDownloadCommand(),
			newPlayCommand(),
			newHistoryCommand(),
			newWebCommand(),
		},
	}
}

func options() []ff.Option {
	return []ff.Option{
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parser),
		ff.WithEnvVarPrefix("MIXCTL"),
	}
}

func newVersionCommand(version, commit, date string) *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "mixctl version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if commit != "" {
				versionFields = append(versionFields, commit)
			}
			if date != "" {
				versionFields = append(versionFields, date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}

func newCatalogCommand() *ffcli.Command {
	cmd := "catalog"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &catalogcmd.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.BaseURL, "base-url", "http://localhost:5000", "studio service address")
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "timeout for the process (0 means no timeout)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("mixctl %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "print available moods and genres",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return catalogcmd.Run(ctx, cfg)
		},
	}
}

func newGenerateCommand() *ffcli.Command {
	cmd := "generate"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &generate.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.BaseURL, "base-url", "http://localhost:5000", "studio service address")
	fs.DurationVar(&cfg.Wait, "wait", 250*time.Millisecond, "wait time between requests")
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "timeout for the process (0 means no timeout)")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type for the session log (memory, sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")

	fs.StringVar(&cfg.Mood, "mood", "", "mood to use")
	fs.StringVar(&cfg.Genre, "genre", "", "genre to use")
	fs.IntVar(&cfg.Duration, "duration", 10, "track duration in seconds (5-30)")
	fs.IntVar(&cfg.Tempo, "tempo", 120, "tempo in bpm (60-180)")
	fs.StringVar(&cfg.Input, "input", "", "csv with batch entries (fields: mood,genre,duration,tempo)")
	fs.StringVar(&cfg.Output, "output", "", "output file for the result")
	fs.BoolVar(&cfg.Play, "play", false, "play the result")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("mixctl %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "submit a generation job",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return generate.Run(ctx, cfg)
		},
	}
}

func newRemixCommand() *ffcli.Command {
	cmd := "remix"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &remix.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.BaseURL, "base-url", "http://localhost:5000", "studio service address")
	fs.DurationVar(&cfg.Wait, "wait", 250*time.Millisecond, "wait time between requests")
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "timeout for the process (0 means no timeout)")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type for the session log (memory, sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")

	fs.StringVar(&cfg.Input, "input", "", "source audio file")
	fs.StringVar(&cfg.Mood, "mood", "", "target mood")
	fs.StringVar(&cfg.Genre, "genre", "", "target genre")
	fs.Float64Var(&cfg.TempoChange, "tempo-change", 1.0, "tempo change ratio (0.5-2.0)")
	fs.IntVar(&cfg.PitchShift, "pitch-shift", 0, "pitch shift in semitones (-12 to 12)")
	fs.BoolVar(&cfg.AddHarmony, "add-harmony", false, "add a harmony layer")
	fs.StringVar(&cfg.HarmonyType, "harmony-type", "third", "harmony interval (third, fifth, octave)")
	fs.BoolVar(&cfg.IntelligentTransform, "intelligent-transform", false, "let the server infer the mood transformation")
	fs.StringVar(&cfg.SourceMood, "source-mood", "", "mood of the source asset")
	fs.BoolVar(&cfg.Analyze, "analyze", false, "run the analyze sub-workflow first")
	fs.StringVar(&cfg.Output, "output", "", "output file for the result")
	fs.BoolVar(&cfg.Play, "play", false, "play the result")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("mixctl %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "submit a remix job for a local audio file",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return remix.Run(ctx, cfg)
		},
	}
}

func newAnalyzeCommand() *ffcli.Command {
	cmd := "analyze"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &analyze.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.BaseURL, "base-url", "http://localhost:5000", "studio service address")
	fs.DurationVar(&cfg.Wait, "wait", 250*time.Millisecond, "wait time between requests")
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "timeout for the process (0 means no timeout)")
	fs.StringVar(&cfg.Input, "input", "", "source audio file")
	fs.StringVar(&cfg.Waveform, "waveform", "", "write a waveform preview png to this path")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("mixctl %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "analyze a local audio file",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return analyze.Run(ctx, cfg)
		},
	}
}

func newDownloadCommand() *ffcli.Command {
	cmd := "download"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &download.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.BaseURL, "base-url", "http://localhost:5000", "studio service address")
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "timeout for the process (0 means no timeout)")
	fs.StringVar(&cfg.Filename, "filename", "", "track filename on the service")
	fs.StringVar(&cfg.Output, "output", "", "output file (defaults to the filename)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("mixctl %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "download a track",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return download.Run(ctx, cfg)
		},
	}
}

func newPlayCommand() *ffcli.Command {
	cmd := "play"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &play.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.BaseURL, "base-url", "http://localhost:5000", "studio service address")
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "timeout for the process (0 means no timeout)")
	fs.StringVar(&cfg.Filename, "filename", "", "track filename on the service")
	fs.Float64Var(&cfg.Volume, "volume", 0, "playback volume (0-1)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("mixctl %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "stream and play a track",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return play.Run(ctx, cfg)
		},
	}
}

func newHistoryCommand() *ffcli.Command {
	cmd := "history"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &sessionlog.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type for the session log (memory, sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("mixctl %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "list recorded job submissions",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return sessionlog.Run(ctx, cfg)
		},
	}
}

func newWebCommand() *ffcli.Command {
	cmd := "web"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &web.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.BaseURL, "base-url", "http://localhost:5000", "studio service address")
	fs.DurationVar(&cfg.Wait, "wait", 250*time.Millisecond, "wait time between requests")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type for the session log (memory, sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.Addr, "addr", ":1337", "address to listen on")
	fs.BoolVar(&cfg.Open, "open", false, "open the control surface in the browser")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("mixctl %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "serve the local web control surface",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return web.Serve(ctx, cfg)
		},
	}
}
