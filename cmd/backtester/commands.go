package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/config"
	"github.com/quantreplay/backtester/data/kline/csv"
	dbkline "github.com/quantreplay/backtester/data/kline/database"
	"github.com/quantreplay/backtester/database"
	"github.com/quantreplay/backtester/database/journal"
	"github.com/quantreplay/backtester/engine"
	"github.com/quantreplay/backtester/eventhandlers/strategies"
	"github.com/quantreplay/backtester/log"
	"github.com/quantreplay/backtester/report"
	"github.com/quantreplay/backtester/report/archive"
	"github.com/urfave/cli/v2"
)

var (
	errNoConfigPath     = errors.New("no config path provided")
	errNoSweepParams    = errors.New("no sweep parameters provided")
	errBadSweepParam    = errors.New("sweep parameter must be key=value[,value...]")
	errNoJournal        = errors.New("no journal database configured")
	errMissingSeedInput = errors.New("symbol, file and dsn are required")
)

var configFlag = &cli.StringFlag{
	Name:        "config",
	Aliases:     []string{"c"},
	Usage:       "the path to a json or toml config file",
	TakesFile:   true,
	Destination: &configPath,
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "executes a backtest from a config file",
	ArgsUsage: "<config>",
	Flags: []cli.Flag{
		configFlag,
		&cli.StringFlag{
			Name:  "output",
			Usage: "directory to write the results bundle to, overrides output-settings results-path",
		},
	},
	Action: runBacktest,
}

var sweepCommand = &cli.Command{
	Name:      "sweep",
	Usage:     "runs the configured strategy once per combination of parameter values",
	ArgsUsage: "<config>",
	Flags: []cli.Flag{
		configFlag,
		&cli.StringSliceFlag{
			Name:    "param",
			Aliases: []string{"p"},
			Usage:   "a strategy parameter and the values to try, eg --param rsi-period=7,14,21",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "how many runs execute at once",
			Value: 1,
		},
	},
	Action: sweep,
}

var listStrategiesCommand = &cli.Command{
	Name:   "strategies",
	Usage:  "lists the built in strategies",
	Action: listStrategies,
}

var exampleConfigCommand = &cli.Command{
	Name:      "example-config",
	Usage:     "writes an example config, the format follows the file extension",
	ArgsUsage: "<path>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "output",
			Usage: "the file to write",
			Value: "config.json",
		},
	},
	Action: writeExampleConfig,
}

var seedCandlesCommand = &cli.Command{
	Name:  "seed",
	Usage: "loads a candle csv file into a database for database-data runs",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "symbol", Usage: "the symbol the candles belong to"},
		&cli.StringFlag{Name: "file", Usage: "csv file to load candles from", TakesFile: true},
		&cli.StringFlag{Name: "driver", Usage: "sqlite3 or postgres", Value: database.DBSQLite3},
		&cli.StringFlag{Name: "dsn", Usage: "the database connection string"},
	},
	Action: seedCandles,
}

var listRunsCommand = &cli.Command{
	Name:      "runs",
	Usage:     "lists runs stored in the configured journal database",
	ArgsUsage: "<config>",
	Flags:     []cli.Flag{configFlag},
	Action:    listRuns,
}

// loadConfig reads the config named by --config or the first argument,
// applies environment overrides and sets up logging
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = c.Args().First()
	}
	if path == "" {
		return nil, errNoConfigPath
	}
	cfg, err := config.ReadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	if err = cfg.ApplyEnvOverrides(envFile); err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	if err = log.SetupGlobalLogger(cfg.LoggerConfig()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runBacktest(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.OutputSettings.Verbose {
		fmt.Print(common.ASCIILogo + "\n")
	}
	bt, err := engine.NewFromConfig(c.Context, cfg)
	if err != nil {
		return err
	}
	res, err := bt.Run()
	if err != nil {
		return err
	}
	d, err := report.New(bt)
	if err != nil {
		return err
	}
	summary, err := d.Summary()
	if err != nil {
		return err
	}
	fmt.Println(summary)
	if cfg.OutputSettings.Verbose && res.Statistics != nil {
		res.Statistics.PrintTotalResults()
	}

	outDir := cfg.OutputSettings.ResultsPath
	if c.IsSet("output") {
		outDir = c.String("output")
	}
	if outDir != "" {
		if _, err = d.WriteResults(outDir); err != nil {
			return err
		}
	}
	if cfg.OutputSettings.JournalDatabase != nil {
		store, err := journal.Open(c.Context, cfg.OutputSettings.JournalDatabase)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Errorln(log.Journal, err)
			}
		}()
		if err = store.SaveRun(c.Context, &d.MetaData, res); err != nil {
			return err
		}
	}
	if a := cfg.OutputSettings.Archive; a != nil {
		up, err := archive.NewS3Uploader(c.Context, a)
		if err != nil {
			return err
		}
		if _, err = archive.Store(c.Context, up, a.Prefix, d); err != nil {
			return err
		}
	}
	return nil
}

func sweep(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	params, err := parseSweepParams(c.StringSlice("param"))
	if err != nil {
		return err
	}
	holder, err := engine.LoadData(c.Context, cfg)
	if err != nil {
		return err
	}
	results, err := engine.Sweep(c.Context, cfg, holder, params, c.Int("concurrency"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := make([]string, 0, len(params)+3)
	for i := range params {
		header = append(header, params[i].Key)
	}
	header = append(header, "final-equity", "sharpe", "max-drawdown")
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for i := range results {
		row := make([]string, 0, len(header))
		for j := range params {
			row = append(row, fmt.Sprint(results[i].Parameters[params[j].Key]))
		}
		row = append(row, results[i].Results.FinalEquity.StringFixed(2))
		if s := results[i].Results.Statistics; s != nil {
			row = append(row, fmt.Sprintf("%.4f", s.SharpeRatio), fmt.Sprintf("%.2f%%", s.MaxDrawdown*100))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

// parseSweepParams reads key=v1,v2 entries. The flag parser may already
// have split values on commas, so bare entries extend the previous key
func parseSweepParams(raw []string) ([]engine.SweepParameter, error) {
	var resp []engine.SweepParameter
	for _, entry := range raw {
		values := entry
		if key, v, found := strings.Cut(entry, "="); found {
			key = strings.TrimSpace(key)
			if key == "" {
				return nil, fmt.Errorf("%w: %q", errBadSweepParam, entry)
			}
			resp = append(resp, engine.SweepParameter{Key: key})
			values = v
		} else if len(resp) == 0 {
			return nil, fmt.Errorf("%w: %q", errBadSweepParam, entry)
		}
		last := &resp[len(resp)-1]
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				last.Values = append(last.Values, v)
			}
		}
	}
	if len(resp) == 0 {
		return nil, errNoSweepParams
	}
	return resp, nil
}

func listStrategies(_ *cli.Context) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	strats := strategies.GetStrategies()
	for i := range strats {
		fmt.Fprintf(w, "%v\t%v\n", strats[i].Name(), strats[i].Description())
	}
	return w.Flush()
}

func writeExampleConfig(c *cli.Context) error {
	path := c.String("output")
	if !c.IsSet("output") && c.Args().First() != "" {
		path = c.Args().First()
	}
	if err := config.WriteExampleConfig(path); err != nil {
		return err
	}
	fmt.Printf("example config written to %v\n", path)
	return nil
}

func seedCandles(c *cli.Context) error {
	if c.NumFlags() == 0 && c.NArg() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	symbol, file, dsn := c.String("symbol"), c.String("file"), c.String("dsn")
	if symbol == "" || file == "" || dsn == "" {
		return errMissingSeedInput
	}
	s, err := csv.LoadData(symbol, csv.Paths{Candles: file})
	if err != nil {
		return err
	}
	db, err := database.Open(c.Context, &database.Config{Driver: c.String("driver"), DSN: dsn})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.CloseConnection(); err != nil {
			log.Errorln(log.Data, err)
		}
	}()
	if err = dbkline.InsertCandles(c.Context, db, s); err != nil {
		return err
	}
	fmt.Printf("seeded %v candles for %v\n", len(s.Candles), symbol)
	return nil
}

func listRuns(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.OutputSettings.JournalDatabase == nil {
		return errNoJournal
	}
	store, err := journal.Open(c.Context, cfg.OutputSettings.JournalDatabase)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorln(log.Journal, err)
		}
	}()
	runs, err := store.Runs(c.Context)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tstrategy\tnickname\tstarted\tsteps\tfinal-equity")
	for i := range runs {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\n", runs[i].ID, runs[i].Strategy, runs[i].Nickname,
			runs[i].DateStarted.Format("2006-01-02 15:04:05"), runs[i].Steps, runs[i].FinalEquity.StringFixed(2))
	}
	return w.Flush()
}
