// fairprice: stock fair price calculator
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/fairprice/api"
	"github.com/seenimoa/fairprice/internal/batch"
	"github.com/seenimoa/fairprice/internal/config"
	"github.com/seenimoa/fairprice/internal/datasource"
	"github.com/seenimoa/fairprice/internal/logging"
	"github.com/seenimoa/fairprice/internal/report"
	"github.com/seenimoa/fairprice/internal/resolve"
	"github.com/seenimoa/fairprice/internal/valuation"
	"github.com/seenimoa/fairprice/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fairprice",
	Short: "Stock fair price calculator",
	Long: `fairprice values a listed stock from its financial facts.

It multiplies net income (PER), revenue (PSR) or shareholders' equity (PBR)
by a target multiple, divides by shares outstanding, and derives a buy price
after a safety margin. The multiple can come from the stock's own history.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(valueCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fairprice %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Value Command ---

var valueCmd = &cobra.Command{
	Use:   "value [symbol]",
	Short: "Compute the fair price of a stock",
	Long: `Compute fair price, buy price and upside for one symbol.

Examples:
  fairprice value 005930 --metric PBR --multiple 1.2
  fairprice value AAPL --metric PER --multiple 25 --margin 30
  fairprice value 삼성전자 --history --format markdown`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := paramsFromFlags(cmd)
		if err != nil {
			return err
		}
		src, err := factSource(cmd)
		if err != nil {
			return err
		}
		useHistory, _ := cmd.Flags().GetBool("history")

		item := batch.One(cmd.Context(), src, args[0], params, batchOptions(useHistory))
		if item.Err != nil {
			return item.Err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), item)
		}
		format, _ := cmd.Flags().GetString("format")
		f, err := report.ParseFormat(format)
		if err != nil {
			return err
		}
		return report.Render(cmd.OutOrStdout(), report.Valuation{
			Facts:        *item.Facts,
			Result:       *item.Result,
			Historical:   item.Historical,
			SafetyMargin: params.SafetyMarginPercent,
			GeneratedAt:  time.Now(),
		}, f)
	},
}

func init() {
	addParamFlags(valueCmd)
	valueCmd.Flags().Bool("history", false, "use the stock's historical average multiple")
	valueCmd.Flags().Bool("json", false, "print the result as JSON")
	valueCmd.Flags().String("format", "text", "report format (text, markdown)")
}

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history [symbol]",
	Short: "Show the historical average multiple of a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := paramsFromFlags(cmd)
		if err != nil {
			return err
		}
		src, err := factSource(cmd)
		if err != nil {
			return err
		}
		sym, err := utils.NormalizeSymbol(args[0])
		if err != nil {
			return err
		}

		points, err := src.History(cmd.Context(), sym.Code, resolveField(params.Metric))
		if err != nil {
			return err
		}
		hm := valuation.HistoricalAverageMultiple(points, cfg.Valuation.HistoryFallback())

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), hm)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s history (%d of %d points usable)\n", sym.Code, params.Metric, hm.Points, len(points))
		for _, p := range points {
			implied, ok := valuation.ImpliedMultiple(p)
			if !ok {
				fmt.Fprintf(out, "  %d  skipped\n", p.Year)
				continue
			}
			fmt.Fprintf(out, "  %d  %s\n", p.Year, utils.FormatMultiple(implied))
		}
		fmt.Fprintf(out, "Average %s: %s", params.Metric, utils.FormatMultiple(hm.Multiple))
		if hm.UsedDefault {
			fmt.Fprint(out, " (default, no usable history)")
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	historyCmd.Flags().String("metric", "", "valuation metric (PER, PSR, PBR)")
	historyCmd.Flags().String("data", "", "directory of fact files (default: data.dir)")
	historyCmd.Flags().Bool("json", false, "print the result as JSON")
}

// --- Batch Command ---

var batchCmd = &cobra.Command{
	Use:   "batch [symbols...]",
	Short: "Value several stocks concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := paramsFromFlags(cmd)
		if err != nil {
			return err
		}
		src, err := factSource(cmd)
		if err != nil {
			return err
		}
		useHistory, _ := cmd.Flags().GetBool("history")
		opts := batchOptions(useHistory)
		if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
			opts.Concurrency = n
		}

		items, err := batch.Run(cmd.Context(), src, args, params, opts)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), items)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-10s %16s %16s %16s %10s\n", "SYMBOL", "PRICE", "FAIR", "BUY", "UPSIDE")
		failed := 0
		for _, it := range items {
			if it.Err != nil {
				failed++
				fmt.Fprintf(out, "%-10s %s\n", it.Input, it.Error)
				continue
			}
			r := it.Result
			fmt.Fprintf(out, "%-10s %16s %16s %16s %10s\n", it.Symbol,
				utils.FormatMoney(r.Currency, r.CurrentPrice),
				utils.FormatMoney(r.Currency, r.FairPrice),
				utils.FormatMoney(r.Currency, r.BuyPrice),
				utils.FormatPct(r.UpsidePercent))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d symbols failed", failed, len(items))
		}
		return nil
	},
}

func init() {
	addParamFlags(batchCmd)
	batchCmd.Flags().Bool("history", false, "use each stock's historical average multiple")
	batchCmd.Flags().Bool("json", false, "print the results as JSON")
	batchCmd.Flags().Int("concurrency", 0, "symbols valued in parallel (default: data.concurrency)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
		src, err := factSource(cmd)
		if err != nil {
			return err
		}

		api.Version = version
		srv, err := api.NewServer(cfg, src)
		if err != nil {
			return err
		}
		return srv.ListenAndServe(cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default: api.port)")
	serveCmd.Flags().String("data", "", "directory of fact files (default: data.dir)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  fairprice System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  KRX:           %s (%s)\n", utils.MarketStatus(utils.ExchangeKRX, now), utils.FormatDateTime(utils.ExchangeKRX, now))
		fmt.Printf("  US:            %s (%s)\n", utils.MarketStatus(utils.ExchangeUS, now), utils.FormatDateTime(utils.ExchangeUS, now))
		fmt.Println()

		// Config summary
		v := cfg.Valuation
		fmt.Println("  Configuration:")
		fmt.Printf("    Valuation:     %s × %s, margin %s\n", v.Metric, utils.FormatMultiple(v.Multiple), utils.FormatPct(v.SafetyMarginPct))
		fmt.Printf("    History:       default %s\n", utils.FormatMultiple(v.HistoryFallback()))
		fmt.Printf("    Data Dir:      %s (cache %s)\n", cfg.Data.Dir, cfg.Data.CacheDuration())
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		if len(cfg.Sources) > 0 {
			fields := make([]string, 0, len(cfg.Sources))
			for f := range cfg.Sources {
				fields = append(fields, f)
			}
			fmt.Printf("    Source Overrides: %s\n", strings.Join(fields, ", "))
		}
		fmt.Println()

		// API keys status
		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Helpers ---

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().String("metric", "", "valuation metric (PER, PSR, PBR) (default: valuation.metric)")
	cmd.Flags().Float64("multiple", 0, "target multiple (default: valuation.multiple)")
	cmd.Flags().Float64("margin", 0, "safety margin percent (default: valuation.safety_margin_pct)")
	cmd.Flags().String("data", "", "directory of fact files (default: data.dir)")
}

// paramsFromFlags starts from the configured defaults and applies any flags the user set.
func paramsFromFlags(cmd *cobra.Command) (valuation.Params, error) {
	p, err := cfg.Valuation.Params()
	if err != nil {
		return valuation.Params{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("metric") {
		s, _ := flags.GetString("metric")
		if p.Metric, err = valuation.ParseMetric(s); err != nil {
			return valuation.Params{}, err
		}
	}
	if flags.Changed("multiple") {
		p.Multiple, _ = flags.GetFloat64("multiple")
	}
	if flags.Changed("margin") {
		p.SafetyMarginPercent, _ = flags.GetFloat64("margin")
	}
	return p, p.Validate()
}

// factSource builds the cached file-backed source from config and the --data flag.
func factSource(cmd *cobra.Command) (datasource.FactSource, error) {
	dir := cfg.Data.Dir
	if d, _ := cmd.Flags().GetString("data"); d != "" {
		dir = d
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("dir", dir).Dur("cache_ttl", cfg.Data.CacheDuration()).Msg("using file fact source")
	return datasource.NewCachedSource(datasource.NewFileSource(dir, policy), cfg.Data.CacheDuration()), nil
}

func batchOptions(useHistory bool) batch.Options {
	return batch.Options{
		Concurrency:     cfg.Data.Concurrency,
		UseHistory:      useHistory,
		DefaultMultiple: cfg.Valuation.HistoryFallback(),
	}
}

func resolveField(m valuation.Metric) resolve.Field {
	return resolve.Field(m.BaseField())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
