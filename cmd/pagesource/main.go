package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pagesource/internal/bootstrap"
	pagesourceoutadapter "pagesource/internal/modules/pagesource/adapter/out"
	"pagesource/internal/modules/pagesource/domain"
	"pagesource/internal/modules/pagesource/dto"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
	"pagesource/internal/platform/config"
	apperrors "pagesource/internal/platform/errors"
	"pagesource/internal/platform/logging"
	"pagesource/internal/ui/window"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	dataDir    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "pagesource",
		Short:         "Render PDF and PostScript pages through Ghostscript",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultFileName, "config file")
	root.PersistentFlags().StringVar(&g.dataDir, "data-dir", ".", "directory holding the properties database")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")

	root.AddCommand(newRenderCmd(g))
	root.AddCommand(newViewCmd(g))
	root.AddCommand(newTUICmd(g))
	root.AddCommand(newSourceCmd(g))
	root.AddCommand(newEngineCmd(g))
	return root
}

func loadConfig(g *globalFlags) (config.Config, error) {
	cfg, err := config.Load(g.configPath, g.dataDir)
	if err != nil {
		return config.Config{}, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := logging.Configure(os.Stderr, cfg.LogLevel); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func loadApp(g *globalFlags, graphics pagesourceout.Graphics) (*bootstrap.App, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, graphics)
}

// propFlags are the per-source overrides accepted by several commands.
type propFlags struct {
	page   int
	width  int
	height int
	noFit  bool
	dpi    int
}

func (f *propFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", domain.MinPage, "1-based page number")
	cmd.Flags().IntVar(&f.width, "width", 0, "media width in points (enables the size override)")
	cmd.Flags().IntVar(&f.height, "height", 0, "media height in points (enables the size override)")
	cmd.Flags().BoolVar(&f.noFit, "no-fit", false, "do not scale the page into the override size")
	cmd.Flags().IntVar(&f.dpi, "dpi", 0, "output resolution (enables the dpi override)")
}

func (f *propFlags) apply(cmd *cobra.Command, props dto.Properties) dto.Properties {
	if cmd.Flags().Changed("page") {
		props.PageNumber = f.page
	}
	if cmd.Flags().Changed("width") || cmd.Flags().Changed("height") {
		props.OverridePageSize = true
		if f.width > 0 {
			props.OverrideWidth = f.width
		}
		if f.height > 0 {
			props.OverrideHeight = f.height
		}
	}
	if cmd.Flags().Changed("no-fit") {
		props.OverrideFitToPage = !f.noFit
	}
	if cmd.Flags().Changed("dpi") {
		props.OverrideDPIEnabled = true
		props.OverrideDPI = f.dpi
	}
	return props
}

func defaultProperties(path string) dto.Properties {
	props := dto.Properties(domain.DefaultProperties())
	props.FilePath = path
	return props
}

// resolveSource treats target as a saved source name first and as a document
// path otherwise.
func resolveSource(ctx context.Context, app *bootstrap.App, target string) (string, dto.Properties, error) {
	props, err := app.CLI.LoadProperties(ctx, target)
	if err == nil {
		return target, props, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", dto.Properties{}, err
	}
	if _, statErr := os.Stat(target); statErr != nil {
		return "", dto.Properties{}, fmt.Errorf("%q is neither a saved source nor a readable file: %w", target, statErr)
	}
	name := strings.TrimSuffix(filepath.Base(target), filepath.Ext(target))
	return name, defaultProperties(target), nil
}

func newRenderCmd(g *globalFlags) *cobra.Command {
	var out string
	pf := &propFlags{}
	cmd := &cobra.Command{
		Use:   "render <source|file>",
		Short: "Render one page to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gfx := pagesourceoutadapter.NewMemoryGraphics()
			app, err := loadApp(g, gfx)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := context.Background()
			name, props, err := resolveSource(ctx, app, args[0])
			if err != nil {
				return err
			}
			snap, err := app.CLI.Open(ctx, name, pf.apply(cmd, props))
			if err != nil {
				return err
			}
			if !snap.HasTexture {
				return fmt.Errorf("page %d of %s rendered nothing", snap.Page, snap.FilePath)
			}
			frame, err := app.CLI.Frame(ctx, name)
			if err != nil {
				return err
			}
			tex, ok := frame.Texture.(*pagesourceoutadapter.MemoryTexture)
			if !ok {
				return fmt.Errorf("unexpected texture %T", frame.Texture)
			}
			img, err := tex.Image(frame.Width, frame.Height)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("%s-p%d.png", name, snap.Page)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := png.Encode(f, img); err != nil {
				_ = f.Close()
				return fmt.Errorf("encode png: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rendered page %d (%dx%d) to %s in %s\n", snap.Page, snap.Width, snap.Height, out, snap.Stats.LastCycle)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output PNG path (default <name>-p<page>.png)")
	pf.bind(cmd)
	return cmd
}

func newViewCmd(g *globalFlags) *cobra.Command {
	pf := &propFlags{}
	cmd := &cobra.Command{
		Use:   "view <source|file>",
		Short: "Show a source in a desktop window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(g, window.NewGraphics())
			if err != nil {
				return err
			}
			defer app.Close()
			name, err := openSource(cmd, app, pf, args[0])
			if err != nil {
				return err
			}
			return bootstrap.RunWindow(app, name)
		},
	}
	pf.bind(cmd)
	return cmd
}

func newTUICmd(g *globalFlags) *cobra.Command {
	pf := &propFlags{}
	cmd := &cobra.Command{
		Use:   "tui <source|file>",
		Short: "Preview a source in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			name, err := openSource(cmd, app, pf, args[0])
			if err != nil {
				return err
			}
			return bootstrap.RunTUI(app, name)
		},
	}
	pf.bind(cmd)
	return cmd
}

func openSource(cmd *cobra.Command, app *bootstrap.App, pf *propFlags, target string) (string, error) {
	ctx := context.Background()
	name, props, err := resolveSource(ctx, app, target)
	if err != nil {
		return "", err
	}
	if _, err := app.CLI.Open(ctx, name, pf.apply(cmd, props)); err != nil {
		return "", err
	}
	return name, nil
}

func newSourceCmd(g *globalFlags) *cobra.Command {
	source := &cobra.Command{Use: "source", Short: "Saved source configurations"}

	pf := &propFlags{}
	add := &cobra.Command{
		Use:   "add <name> <file>",
		Short: "Save a named source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.IsSupportedFile(args[1]) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is not a .pdf, .ps, .eps or .epsf file\n", args[1])
			}
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			props := pf.apply(cmd, defaultProperties(args[1]))
			if err := app.CLI.SaveProperties(context.Background(), args[0], props); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
			return nil
		},
	}
	pf.bind(add)

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			all, err := app.CLI.ListProperties(context.Background())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sources")
				return nil
			}
			for _, s := range all {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tpage %d\t%s\n", s.Name, s.Properties.PageNumber, s.Properties.FilePath)
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved source as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			props, err := app.CLI.LoadProperties(context.Background(), args[0])
			if err != nil {
				return err
			}
			return pagesourceoutadapter.WriteProperties(cmd.OutOrStdout(), domain.Properties(props))
		},
	}

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a saved source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.CLI.DeleteProperties(context.Background(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <name> <properties.yaml>",
		Short: "Save a named source from a YAML properties file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := pagesourceoutadapter.ReadPropertiesFile(args[1])
			if err != nil {
				return err
			}
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.CLI.SaveProperties(context.Background(), args[0], dto.Properties(props)); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", args[0])
			return nil
		},
	}

	source.AddCommand(add, list, show, remove, importCmd)
	return source
}

func newEngineCmd(g *globalFlags) *cobra.Command {
	engine := &cobra.Command{Use: "engine", Short: "Rasterization engine commands"}
	engine.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the configured engine can start",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if cfg.Engine.Kind == config.EngineExec {
				gs := pagesourceoutadapter.NewExecEngine(cfg.Engine.Ghostscript)
				if !gs.Enabled() {
					return fmt.Errorf("ghostscript binary %q not found in PATH", gs.Binary())
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exec engine ok: %s\n", gs.Binary())
				return nil
			}
			eng, err := bootstrap.NewEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Delete()
			if named, ok := eng.(interface{ Name() string }); ok {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "plugin engine ok: %s\n", named.Name())
			}
			return nil
		},
	})
	return engine
}
