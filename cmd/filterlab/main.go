package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/ironsheep/filterlab/internal/config"
	"github.com/ironsheep/filterlab/internal/imaging"
	"github.com/ironsheep/filterlab/internal/report"
	"github.com/ironsheep/filterlab/internal/rest"
	"github.com/ironsheep/filterlab/internal/server"
	"github.com/ironsheep/filterlab/internal/session"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type options struct {
	configPath string
	httpAddr   string
	reference  string
	mine       string
	out        string
	printCfg   bool
	version    bool
	help       bool
}

func main() {
	var opts options
	pflag.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file.")
	pflag.StringVar(&opts.httpAddr, "http", "", "Serve the REST API on this address (e.g. :8080) instead of MCP on stdio.")
	pflag.StringVarP(&opts.reference, "reference", "r", "", "One-shot mode: reference photo to match.")
	pflag.StringVarP(&opts.mine, "mine", "m", "", "One-shot mode: photo to adjust.")
	pflag.StringVarP(&opts.out, "out", "o", "", "One-shot mode: write the adjusted full-resolution photo here.")
	pflag.BoolVar(&opts.printCfg, "print-config", false, "Print the effective configuration as YAML and exit.")
	pflag.BoolVarP(&opts.version, "version", "v", false, "Print version information.")
	pflag.BoolVarP(&opts.help, "help", "h", false, "Print this help message.")
	pflag.Usage = usage
	pflag.Parse()

	if opts.help {
		usage()
		return
	}
	if opts.version {
		fmt.Printf("filterlab %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if opts.httpAddr != "" {
		cfg.HTTPAddr = opts.httpAddr
	}
	if opts.printCfg {
		if err := printConfig(cfg, os.Stdout); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}
	if cfg.Debug() {
		log.Printf("FilterLab v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	switch {
	case opts.reference != "" || opts.mine != "":
		if err := oneShot(cfg, opts, os.Stdout); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case cfg.HTTPAddr != "":
		if cfg.Info() {
			log.Printf("Serving REST API on %s", cfg.HTTPAddr)
		}
		if err := rest.New(cfg).Run(cfg.HTTPAddr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	default:
		srv := server.New(cfg, Version)
		if err := srv.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}

// oneShot analyzes one pair, prints the report and optionally exports.
func oneShot(cfg config.Config, opts options, w io.Writer) error {
	if opts.reference == "" || opts.mine == "" {
		return fmt.Errorf("--reference and --mine must be given together")
	}
	if opts.out != "" {
		if _, err := imaging.SaveFormat(opts.out, ""); err != nil {
			return err
		}
	}

	ref, err := imaging.LoadFile(opts.reference)
	if err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	mine, err := imaging.LoadFile(opts.mine)
	if err != nil {
		return fmt.Errorf("mine: %w", err)
	}

	s := session.New(session.Options{Strength: cfg.Strength, MaxWorkingSize: cfg.MaxWorkingSize})
	if _, err := s.LoadReference(ref); err != nil {
		return err
	}
	if _, err := s.LoadMine(mine); err != nil {
		return err
	}
	sg, err := s.Analyze()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, report.Format(sg.Params)); err != nil {
		return err
	}

	if opts.out == "" {
		return nil
	}
	img, err := s.Export()
	if err != nil {
		return err
	}
	if err := imaging.Save(img, opts.out, "", cfg.ExportQuality); err != nil {
		return err
	}
	if cfg.Info() {
		log.Printf("Wrote %s (%dx%d)", opts.out, img.Rect.Dx(), img.Rect.Dy())
	}
	return nil
}

// printConfig writes the effective configuration after file and
// environment overrides.
func printConfig(cfg config.Config, w io.Writer) error {
	out, err := cfg.AsYAML()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func usage() {
	fmt.Println("filterlab - match a photo's look to a reference with phone-editor sliders")
	fmt.Println()
	fmt.Println("Usage: filterlab [options]")
	fmt.Println()
	fmt.Println("Options:")
	pflag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Printf("  %s=0.5       Scale every suggested slider\n", config.EnvStrength)
	fmt.Println()
	fmt.Println("Use --print-config to see the settings after file and environment overrides.")
	fmt.Println("Without --http or --reference/--mine the server speaks MCP over stdin/stdout.")
}
