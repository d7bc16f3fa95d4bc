package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/glacierwatch/internal/cli"
	"github.com/hyperjump/glacierwatch/internal/server"
)

// clientFlags are shared by every command that talks to the server.
type clientFlags struct {
	server string
	output string
}

func (f *clientFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.server, "server", defaultServerURL, "server URL")
	fs.StringVar(&f.output, "output", "text", "output format: text or json")
}

func (f *clientFlags) format() cli.OutputFormat {
	format, err := cli.ParseOutputFormat(f.output)
	if err != nil {
		fail(err)
	}
	return format
}

// areaFlags pick an existing session or describe the AOI for a new one.
type areaFlags struct {
	session string
	preset  string
	name    string
	lat     float64
	lon     float64
	radius  float64
}

func (f *areaFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.session, "session", "", "existing session ID")
	fs.StringVar(&f.preset, "preset", "", "preset glacier name")
	fs.StringVar(&f.name, "name", "", "name for a custom location")
	fs.Float64Var(&f.lat, "lat", 0, "custom center latitude")
	fs.Float64Var(&f.lon, "lon", 0, "custom center longitude")
	fs.Float64Var(&f.radius, "radius", 0, "buffer radius in km (default 5)")
}

// request builds the session-creation request from the flags that were set.
func (f *areaFlags) request(set map[string]bool) (server.CreateSessionRequest, error) {
	req := server.CreateSessionRequest{Preset: f.preset, Name: f.name, RadiusKm: f.radius}
	if set["lat"] || set["lon"] {
		if !set["lat"] || !set["lon"] {
			return req, fmt.Errorf("--lat and --lon must be given together")
		}
		lat, lon := f.lat, f.lon
		req.Lat, req.Lon = &lat, &lon
	}
	if req.Preset == "" && req.Lat == nil {
		return req, fmt.Errorf("one of --session, --preset or --lat/--lon is required")
	}
	return req, nil
}

// resolve returns the session to act on, creating one when no --session was given.
func (f *areaFlags) resolve(ctx context.Context, c *apiClient, fs *flag.FlagSet) (string, error) {
	if f.session != "" {
		return f.session, nil
	}
	req, err := f.request(setFlags(fs))
	if err != nil {
		return "", err
	}
	s, err := c.CreateSession(ctx, req)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(os.Stderr, "Created session %s for %s\n", s.ID, s.AOI.Name)
	return s.ID, nil
}

func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front, since flag.Parse stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildQuestion joins positional args so questions work with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func check(err error) {
	if err != nil {
		fail(err)
	}
}

func runGlaciers(args []string) {
	fs := flag.NewFlagSet("glaciers", flag.ExitOnError)
	var cf clientFlags
	cf.register(fs)
	_ = fs.Parse(args)

	presets, err := newAPIClient(cf.server).Glaciers(context.Background())
	check(err)
	check(cli.WriteGlaciers(os.Stdout, presets, cf.format()))
}

func runVariables(args []string) {
	fs := flag.NewFlagSet("variables", flag.ExitOnError)
	var cf clientFlags
	cf.register(fs)
	_ = fs.Parse(args)

	vars, err := newAPIClient(cf.server).Variables(context.Background())
	check(err)
	check(cli.WriteVariables(os.Stdout, vars, cf.format()))
}

func runSession(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: glacierwatch session <create|show|list|delete|turns|suggest> [flags]")
		os.Exit(1)
	}
	sub := args[0]
	fs := flag.NewFlagSet("session "+sub, flag.ExitOnError)
	var cf clientFlags
	var af areaFlags
	cf.register(fs)
	if sub == "create" {
		af.register(fs)
	}
	_ = fs.Parse(argsReorder(args[1:]))

	ctx := context.Background()
	c := newAPIClient(cf.server)
	format := cf.format()

	if sub == "create" {
		req, err := af.request(setFlags(fs))
		check(err)
		s, err := c.CreateSession(ctx, req)
		check(err)
		check(cli.WriteSession(os.Stdout, s, format))
		return
	}
	if sub == "list" {
		list, err := c.Sessions(ctx)
		check(err)
		check(cli.WriteSessions(os.Stdout, list, format))
		return
	}

	if fs.NArg() < 1 {
		fmt.Printf("Usage: glacierwatch session %s <session-id>\n", sub)
		os.Exit(1)
	}
	id := fs.Arg(0)
	switch sub {
	case "show":
		s, err := c.Session(ctx, id)
		check(err)
		check(cli.WriteSession(os.Stdout, s, format))
	case "delete":
		check(c.DeleteSession(ctx, id))
		fmt.Printf("Session deleted: %s\n", id)
	case "turns":
		turns, err := c.Turns(ctx, id)
		check(err)
		check(cli.WriteTurns(os.Stdout, turns, format))
	case "suggest":
		qs, err := c.Suggestions(ctx, id)
		check(err)
		check(cli.WriteSuggestions(os.Stdout, qs, format))
	default:
		fmt.Printf("Unknown session command: %s\n", sub)
		os.Exit(1)
	}
}

func runVelocity(args []string) {
	fs := flag.NewFlagSet("velocity", flag.ExitOnError)
	var cf clientFlags
	var af areaFlags
	cf.register(fs)
	af.register(fs)
	from := fs.String("from", "", "first acquisition date (YYYY-MM-DD)")
	to := fs.String("to", "", "second acquisition date (YYYY-MM-DD)")
	window := fs.Int("window", 0, "feature-tracking window size in pixels (default from server config)")
	_ = fs.Parse(args)

	if *from == "" || *to == "" {
		fmt.Println("Usage: glacierwatch velocity [--session ID | --preset NAME | --lat LAT --lon LON] --from DATE --to DATE")
		os.Exit(1)
	}
	ctx := context.Background()
	c := newAPIClient(cf.server)
	id, err := af.resolve(ctx, c, fs)
	check(err)
	v, err := c.Velocity(ctx, id, server.VelocityRequest{DateA: *from, DateB: *to, WindowSize: *window})
	check(err)
	check(cli.WriteVelocity(os.Stdout, v, cf.format()))
}

func runClimate(args []string) {
	fs := flag.NewFlagSet("climate", flag.ExitOnError)
	var cf clientFlags
	var af areaFlags
	cf.register(fs)
	af.register(fs)
	variable := fs.String("variable", "Air Temperature", "climate variable name or band")
	date := fs.String("date", "2023-08-15", "date within the wanted month (YYYY-MM-DD)")
	_ = fs.Parse(args)

	ctx := context.Background()
	c := newAPIClient(cf.server)
	id, err := af.resolve(ctx, c, fs)
	check(err)
	layer, err := c.Climate(ctx, id, server.ClimateRequest{Variable: *variable, Date: *date})
	check(err)
	check(cli.WriteClimate(os.Stdout, layer, cf.format()))
}

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	var cf clientFlags
	cf.register(fs)
	sessionID := fs.String("session", "", "session ID")
	_ = fs.Parse(argsReorder(args))

	question := buildQuestion(fs.Args())
	if *sessionID == "" || question == "" {
		fmt.Println("Usage: glacierwatch ask --session ID <question>")
		os.Exit(1)
	}
	turn, err := newAPIClient(cf.server).Ask(context.Background(), *sessionID, question)
	check(err)
	check(cli.WriteTurn(os.Stdout, turn, cf.format()))
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	sessionID := fs.String("session", "", "session ID")
	format := fs.String("format", "txt", "report format: txt or xlsx")
	out := fs.String("out", "", "output file (default: server-suggested name; - for stdout)")
	_ = fs.Parse(args)

	if *sessionID == "" {
		fmt.Println("Usage: glacierwatch export --session ID [--format txt|xlsx] [--out FILE]")
		os.Exit(1)
	}
	data, filename, err := newAPIClient(*serverURL).Export(context.Background(), *sessionID, *format)
	check(err)
	if *out == "-" {
		_, err := os.Stdout.Write(data)
		check(err)
		return
	}
	path := exportPath(*out, filename, *format)
	check(os.WriteFile(path, data, 0644))
	fmt.Printf("Report written to %s\n", path)
}

// exportPath picks the report destination: explicit path, else the server's suggested
// file name (base name only), else a generic name.
func exportPath(out, suggested, format string) string {
	if out != "" {
		return out
	}
	if name := filepath.Base(suggested); suggested != "" && name != "." && name != string(filepath.Separator) {
		return name
	}
	return "glacier_analysis." + format
}
