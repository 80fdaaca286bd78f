package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/settleup/internal/infrastructure/config"
)

// Output formats for the settle command.
const (
	FormatPlain    = "plain"
	FormatWhatsApp = "whatsapp"
	FormatJSON     = "json"
)

// SettleFlags are the flags of the settle command
type SettleFlags struct {
	File     string
	Format   string
	Copy     bool
	Decimals int // -1 keeps the configured precision
	Currency string
	Locale   string
	Config   string
	Verbose  bool
	Args     []string // Name=amount pairs
}

// ParseSettleFlags parses settle flags from args (without the program name)
func ParseSettleFlags(args []string, stderr io.Writer) (*SettleFlags, error) {
	fs := flag.NewFlagSet("settle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: settle [flags] Name=amount ...")
		fmt.Fprintln(stderr, "       settle [flags] --file participants.json")
		fs.PrintDefaults()
	}

	flags := &SettleFlags{}
	fs.StringVar(&flags.File, "file", "", "Read participants from a JSON file (- for stdin)")
	fs.StringVar(&flags.Format, "format", FormatPlain, "Output format: plain, whatsapp or json")
	fs.BoolVar(&flags.Copy, "copy", false, "Copy the share text to the clipboard")
	fs.IntVar(&flags.Decimals, "decimals", -1, "Currency decimals (default from config)")
	fs.StringVar(&flags.Currency, "currency", "", "Currency code (default from config)")
	fs.StringVar(&flags.Locale, "locale", "", "Number locale, e.g. en or es-AR (default from config)")
	fs.StringVar(&flags.Config, "config", "", "Path to config.yaml or config.toml")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	flags.Args = fs.Args()
	flags.Format = strings.ToLower(flags.Format)
	if err := flags.Validate(); err != nil {
		fs.Usage()
		return nil, err
	}
	return flags, nil
}

// Validate checks flag combinations
func (f *SettleFlags) Validate() error {
	switch f.Format {
	case FormatPlain, FormatWhatsApp, FormatJSON:
	default:
		return fmt.Errorf("unknown format %q", f.Format)
	}
	if f.File != "" && len(f.Args) > 0 {
		return fmt.Errorf("use either --file or Name=amount arguments, not both")
	}
	if f.File == "" && len(f.Args) == 0 {
		return fmt.Errorf("no participants given")
	}
	if f.Decimals > 4 {
		return fmt.Errorf("decimals must be between 0 and 4")
	}
	return nil
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port    int
	Config  string
	Verbose bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags(args []string, stderr io.Writer) (*ServeFlags, error) {
	fs := flag.NewFlagSet("settleup-api", flag.ContinueOnError)
	fs.SetOutput(stderr)

	flags := &ServeFlags{}
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (default from config)")
	fs.StringVar(&flags.Config, "config", "", "Path to config.yaml or config.toml")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// LoadConfig loads path when given, otherwise config.yaml, config.toml
// or the environment.
func LoadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadOrEnv(), nil
}
