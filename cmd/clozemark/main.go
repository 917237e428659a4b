// Command clozemark is the CLI for the ClozeMark annotation engine.
// It edits markup files, manages the document store and serves editing
// sessions over websockets.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/ClozeMark/core/dom"
	"github.com/FocuswithJustin/ClozeMark/core/editor"
	"github.com/FocuswithJustin/ClozeMark/core/selection"
	"github.com/FocuswithJustin/ClozeMark/core/store"
	"github.com/FocuswithJustin/ClozeMark/internal/config"
	"github.com/FocuswithJustin/ClozeMark/internal/logging"
	"github.com/FocuswithJustin/ClozeMark/internal/session"
	"github.com/FocuswithJustin/ClozeMark/internal/validation"
)

const version = "0.1.0"

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Globals are flags shared by every command.
type Globals struct {
	ConfigFile string `name:"config" short:"c" help:"Path to a YAML config file" type:"path"`
	LogLevel   string `name:"log-level" help:"Override the log level (debug, info, warn, error)"`
	LogFormat  string `name:"log-format" help:"Override the log format (json, text)"`
}

// CLI defines the command-line interface for clozemark.
var CLI struct {
	Globals

	// Command groups (noun-first organization)
	Doc     DocGroup    `cmd:"" help:"Annotate a markup file"`
	Store   StoreGroup  `cmd:"" help:"Document store operations"`
	Config  ConfigGroup `cmd:"" help:"Configuration files"`
	Serve   ServeCmd    `cmd:"" help:"Serve editing sessions over websockets"`
	Version VersionCmd  `cmd:"" help:"Print version information"`
}

// settings loads the config file and applies flag overrides.
func (g *Globals) settings() (config.Config, error) {
	cfg, err := config.Load(g.ConfigFile)
	if err != nil {
		return config.Config{}, err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if err := cfg.InitLogging(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// DocGroup contains operations on a single markup file.
type DocGroup struct {
	Refresh  DocRefreshCmd  `cmd:"" help:"Normalize annotations and recompute masks"`
	Promote  DocPromoteCmd  `cmd:"" help:"Promote #marker# text to annotations"`
	Iterate  DocIterateCmd  `cmd:"" help:"Advance the revision iteration"`
	Feedback DocFeedbackCmd `cmd:"" help:"Grade the annotation at an offset"`
	Filter   DocFilterCmd   `cmd:"" help:"Choose which priority tiers are masked"`
	Create   DocCreateCmd   `cmd:"" help:"Annotate a text range"`
	Toggle   DocToggleCmd   `cmd:"" help:"Reveal or re-mask the annotation at an offset"`
	Stats    DocStatsCmd    `cmd:"" help:"Count annotations and their state"`
}

// DocFile is the input and output of a doc command.
type DocFile struct {
	Path    string `arg:"" help:"Markup file" type:"existingfile"`
	Out     string `short:"o" help:"Write the result here instead of stdout" type:"path"`
	InPlace bool   `short:"i" help:"Rewrite the input file"`
}

// docRun is an engine over a parsed file.
type docRun struct {
	doc     *dom.Document
	engine  *editor.Engine
	surface *selection.Static
}

func (f *DocFile) open(g *Globals) (*docRun, error) {
	cfg, err := g.settings()
	if err != nil {
		return nil, err
	}
	data, err := validation.ReadDocument(f.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	doc, err := dom.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.Path, err)
	}
	surface := &selection.Static{}
	engine := editor.New(doc.Body(), surface, cfg.EngineOptions())
	engine.Refresh()
	return &docRun{doc: doc, engine: engine, surface: surface}, nil
}

// selectOffsets places the selection at document-wide text offsets.
func (r *docRun) selectOffsets(start, end int) {
	r.surface.SetSelection(selection.AtOffsets(r.engine.Root(), start, end))
}

// command runs an engine command, writes the markup and reports the result
// on stderr.
func (f *DocFile) command(r *docRun, name string, args ...string) error {
	resp, err := r.engine.Handle(editor.Command{Name: name, Args: args})
	if err != nil {
		return err
	}
	if err := f.write(r.doc); err != nil {
		return err
	}
	if resp.Result != nil {
		return printJSON(stderr, resp.Result)
	}
	return nil
}

func (f *DocFile) write(doc *dom.Document) error {
	out := f.Out
	if f.InPlace {
		if out != "" {
			return fmt.Errorf("--out and --in-place are mutually exclusive")
		}
		out = f.Path
	}
	data := doc.Serialize()
	if out == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := validation.ValidatePath(out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}

// DocRefreshCmd normalizes a file.
type DocRefreshCmd struct {
	DocFile
}

func (c *DocRefreshCmd) Run(g *Globals) error {
	r, err := c.open(g)
	if err != nil {
		return err
	}
	return c.command(r, "refresh")
}

// DocPromoteCmd promotes markers: every marker, or the one nearest --at.
type DocPromoteCmd struct {
	DocFile
	At int `help:"Promote only the marker nearest this text offset" default:"-1"`
}

func (c *DocPromoteCmd) Run(g *Globals) error {
	r, err := c.open(g)
	if err != nil {
		return err
	}
	if c.At < 0 {
		return c.command(r, "promote-all")
	}
	r.selectOffsets(c.At, c.At)
	return c.command(r, "promote")
}

// DocIterateCmd advances the iteration one or more times.
type DocIterateCmd struct {
	DocFile
	Count int `short:"n" help:"Number of iterations" default:"1"`
}

func (c *DocIterateCmd) Run(g *Globals) error {
	if c.Count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	r, err := c.open(g)
	if err != nil {
		return err
	}
	for i := 1; i < c.Count; i++ {
		r.engine.AdvanceIteration()
	}
	return c.command(r, "iterate")
}

// DocFeedbackCmd grades one annotation.
type DocFeedbackCmd struct {
	DocFile
	At    int    `required:"" help:"Text offset inside the annotation"`
	Grade string `arg:"" help:"Grade: yes, rather-yes, neutral, rather-no or no" enum:"yes,rather-yes,neutral,rather-no,no"`
}

func (c *DocFeedbackCmd) Run(g *Globals) error {
	r, err := c.open(g)
	if err != nil {
		return err
	}
	r.selectOffsets(c.At, c.At)
	return c.command(r, "feedback", c.Grade)
}

// DocFilterCmd sets the visible priority tiers.
type DocFilterCmd struct {
	DocFile
	Priorities string `arg:"" help:"Comma-separated tiers, all or none"`
}

func (c *DocFilterCmd) Run(g *Globals) error {
	r, err := c.open(g)
	if err != nil {
		return err
	}
	return c.command(r, "filter", c.Priorities)
}

// DocCreateCmd annotates the text between two offsets.
type DocCreateCmd struct {
	DocFile
	Start    int    `required:"" help:"Start text offset"`
	End      int    `required:"" help:"End text offset"`
	Priority string `short:"p" help:"Priority tier" default:"medium" enum:"high,medium,low"`
	Link     bool   `help:"Link to the previously created annotation"`
}

func (c *DocCreateCmd) Run(g *Globals) error {
	r, err := c.open(g)
	if err != nil {
		return err
	}
	r.selectOffsets(c.Start, c.End)
	args := []string{c.Priority}
	if c.Link {
		args = append(args, "link")
	}
	return c.command(r, "create", args...)
}

// DocToggleCmd reveals or re-masks one annotation and its group.
type DocToggleCmd struct {
	DocFile
	At int `required:"" help:"Text offset inside the annotation"`
}

func (c *DocToggleCmd) Run(g *Globals) error {
	r, err := c.open(g)
	if err != nil {
		return err
	}
	r.selectOffsets(c.At, c.At)
	return c.command(r, "toggle")
}

// DocStatsCmd prints annotation counts.
type DocStatsCmd struct {
	Path string `arg:"" help:"Markup file" type:"existingfile"`
}

func (c *DocStatsCmd) Run(g *Globals) error {
	f := DocFile{Path: c.Path}
	r, err := f.open(g)
	if err != nil {
		return err
	}
	return printJSON(stdout, r.engine.Stats())
}

// StoreGroup contains document store operations.
type StoreGroup struct {
	Save   StoreSaveCmd   `cmd:"" help:"Save a markup file under a name"`
	Load   StoreLoadCmd   `cmd:"" help:"Print a stored document"`
	List   StoreListCmd   `cmd:"" help:"List stored documents"`
	Delete StoreDeleteCmd `cmd:"" help:"Delete a stored document"`
	Export StoreExportCmd `cmd:"" help:"Write every stored document to a directory"`
}

// StoreFlags selects the database for a store command.
type StoreFlags struct {
	DB string `name:"db" help:"Store database path (defaults to store.path)" type:"path"`
}

func (d StoreFlags) open(g *Globals) (*store.Store, error) {
	cfg, err := g.settings()
	if err != nil {
		return nil, err
	}
	path := cfg.Store.Path
	if d.DB != "" {
		path = d.DB
	}
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid store path: %w", err)
	}
	return store.Open(path)
}

// StoreSaveCmd stores a file.
type StoreSaveCmd struct {
	StoreFlags
	Name string `arg:"" help:"Document name"`
	Path string `arg:"" help:"Markup file" type:"existingfile"`
}

func (c *StoreSaveCmd) Run(g *Globals) error {
	data, err := validation.ReadDocument(c.Path)
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	if _, err := dom.Parse(data); err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.Path, err)
	}
	st, err := c.open(g)
	if err != nil {
		return err
	}
	defer st.Close()

	entry, changed, err := st.Save(context.Background(), c.Name, data)
	if err != nil {
		return err
	}
	status := "saved"
	if !changed {
		status = "unchanged"
	}
	fmt.Fprintf(stdout, "%s: %s\n", status, entry.Name)
	fmt.Fprintf(stdout, "  BLAKE3: %s\n", entry.Hash)
	fmt.Fprintf(stdout, "  Size: %d bytes (%d stored)\n", entry.Size, entry.StoredSize)
	return nil
}

// StoreLoadCmd prints or writes a stored document.
type StoreLoadCmd struct {
	StoreFlags
	Name string `arg:"" help:"Document name"`
	Out  string `short:"o" help:"Write to this file instead of stdout" type:"path"`
}

func (c *StoreLoadCmd) Run(g *Globals) error {
	st, err := c.open(g)
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := st.Load(context.Background(), c.Name)
	if err != nil {
		return err
	}
	if c.Out == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	return os.WriteFile(c.Out, data, 0644)
}

// StoreListCmd lists stored documents.
type StoreListCmd struct {
	StoreFlags
	JSON bool `help:"Print JSON"`
}

func (c *StoreListCmd) Run(g *Globals) error {
	st, err := c.open(g)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List(context.Background())
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(stdout, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No documents stored.")
		return nil
	}
	fmt.Fprintf(stdout, "%-30s %10s %10s  %s\n", "NAME", "SIZE", "STORED", "UPDATED")
	for _, e := range entries {
		fmt.Fprintf(stdout, "%-30s %10d %10d  %s\n", e.Name, e.Size, e.StoredSize, e.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// StoreDeleteCmd removes a stored document.
type StoreDeleteCmd struct {
	StoreFlags
	Name string `arg:"" help:"Document name"`
}

func (c *StoreDeleteCmd) Run(g *Globals) error {
	st, err := c.open(g)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(context.Background(), c.Name); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted: %s\n", c.Name)
	return nil
}

// StoreExportCmd writes each stored document to DIR/<name>.html.
type StoreExportCmd struct {
	StoreFlags
	Dir string `arg:"" help:"Output directory" type:"path"`
}

func (c *StoreExportCmd) Run(g *Globals) error {
	if err := validation.ValidatePath(c.Dir); err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}
	st, err := c.open(g)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	entries, err := st.List(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", c.Dir, err)
	}
	for _, e := range entries {
		name, err := validation.SanitizeFilename(e.Name)
		if err != nil {
			logging.Warn("skipping document with unusable name", "name", e.Name, "error", err)
			continue
		}
		data, err := st.Load(ctx, e.Name)
		if err != nil {
			return err
		}
		path := filepath.Join(c.Dir, name+".html")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(stdout, "exported: %s -> %s\n", e.Name, path)
	}
	return nil
}

// ConfigGroup contains config file operations.
type ConfigGroup struct {
	Init ConfigInitCmd `cmd:"" help:"Write the default config to a file"`
	Show ConfigShowCmd `cmd:"" help:"Print the effective config"`
}

// ConfigInitCmd writes the defaults.
type ConfigInitCmd struct {
	Path  string `arg:"" help:"Config file to create" type:"path"`
	Force bool   `help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run() error {
	if err := validation.ValidatePath(c.Path); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}
	if _, err := os.Stat(c.Path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", c.Path)
	}
	if err := config.Write(c.Path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", c.Path)
	return nil
}

// ConfigShowCmd prints the config after flag overrides.
type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(g *Globals) error {
	cfg, err := g.settings()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

// ServeCmd runs the websocket session server.
type ServeCmd struct {
	Addr    string   `help:"Listen address (defaults to server.addr)"`
	Origins []string `name:"origin" help:"Allowed websocket origins (repeatable)"`
	NoStore bool     `name:"no-store" help:"Disable load and save messages"`

	CacheTTL  time.Duration `name:"cache-ttl" help:"How long loaded documents stay in memory (0 disables)" default:"5m"`
	CacheSize int           `name:"cache-size" help:"Maximum cached documents" default:"64"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.settings()
	if err != nil {
		return err
	}
	opts := session.Options{
		Addr:     cfg.Server.Addr,
		Security: session.DefaultSecurityConfig(),
		Engine:   cfg.EngineOptions(),
	}
	if c.Addr != "" {
		opts.Addr = c.Addr
	}
	opts.Security.AllowedOrigins = cfg.Server.AllowedOrigins
	if len(c.Origins) > 0 {
		opts.Security.AllowedOrigins = c.Origins
	}
	if !c.NoStore {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Store = st
		if c.CacheTTL > 0 {
			opts.Store = session.NewCachedStore(st, c.CacheTTL, c.CacheSize)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(stdout, "Serving sessions on ws://%s/ws\n", opts.Addr)
	if len(opts.Security.AllowedOrigins) > 0 {
		fmt.Fprintf(stdout, "Allowed origins: %s\n", strings.Join(opts.Security.AllowedOrigins, ", "))
	}
	return session.NewServer(opts).ListenAndServe(ctx)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := store.GetDriverInfo()
	fmt.Fprintf(stdout, "clozemark version %s\n", version)
	fmt.Fprintf(stdout, "  SQLite driver: %s (%s)\n", info.DriverName, info.Package)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("clozemark"),
		kong.Description("ClozeMark - cloze annotations for markup documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
