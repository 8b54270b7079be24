package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantbt/quantbt/internal/broker"
	"github.com/quantbt/quantbt/internal/broker/commission"
	"github.com/quantbt/quantbt/internal/datasource"
	"github.com/quantbt/quantbt/internal/engine"
	"github.com/quantbt/quantbt/internal/logger"
	"github.com/quantbt/quantbt/internal/metrics"
	"github.com/quantbt/quantbt/internal/signal"
	"github.com/quantbt/quantbt/internal/strategy"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

const dateLayout = "2006-01-02"

// buildStrategy maps a strategy name to the strategy and the signal
// generators it consumes.
func buildStrategy(name string, quantity float64) (strategy.Strategy, []signal.Generator, error) {
	switch name {
	case "buy_and_hold":
		strat, err := strategy.NewBuyAndHold(quantity)
		if err != nil {
			return nil, nil, err
		}

		return strat, nil, nil
	case "ma_cross":
		strat, err := strategy.NewMACross(quantity)
		if err != nil {
			return nil, nil, err
		}

		cross, err := signal.NewEMACross(12, 26)
		if err != nil {
			return nil, nil, err
		}

		return strat, []signal.Generator{cross}, nil
	case "rsi_reversion":
		strat, err := strategy.NewRSIReversion(quantity)
		if err != nil {
			return nil, nil, err
		}

		rsi, err := signal.NewRSI(14, 70, 30)
		if err != nil {
			return nil, nil, err
		}

		return strat, []signal.Generator{rsi}, nil
	default:
		return nil, nil, fmt.Errorf("unknown strategy %q (supported: buy_and_hold, ma_cross, rsi_reversion)", name)
	}
}

// loadConfig parses the config file if one is given, otherwise returns the
// defaults.
func loadConfig(path string) (engine.RunConfig, error) {
	if path == "" {
		return engine.DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return engine.RunConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	return engine.ParseConfig(string(content))
}

// runAction wires the components from the CLI flags and executes one backtest.
func runAction(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	strat, generators, err := buildStrategy(cmd.String("strategy"), cmd.Float("quantity"))
	if err != nil {
		return err
	}

	source, err := datasource.NewDuckDB(cmd.String("data"), config.PartialUniversePolicy, log)
	if err != nil {
		return err
	}
	defer source.Close()

	brk, err := broker.NewSimulatedBroker(
		config.SlippageRate,
		commission.NewFractional(config.CommissionRate),
		config.OversizedOrderPolicy,
		log,
	)
	if err != nil {
		return err
	}

	backtester, err := engine.NewBacktester(config, source, signal.NewPipeline(log, generators...), strat, brk, log)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	progress := engine.OnBarCallback(func(processed, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "backtesting")
		}

		bar.Set(processed)
	})

	result, err := backtester.Run(ctx,
		cmd.StringSlice("symbol"),
		cmd.Timestamp("start"),
		cmd.Timestamp("end"),
		optional.Some(progress),
	)
	if err != nil {
		return err
	}

	performance, err := metrics.Calculate(result)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(renderSummary(strat.Name(), performance))

	if output := cmd.String("output"); output != "" {
		report := types.Report{
			Parameters: result.Parameters,
			Metrics:    performance,
		}

		if err := types.WriteReport(output, report); err != nil {
			return err
		}

		fmt.Printf("Report written to %s\n", output)
	}

	return nil
}

// schemaAction prints the JSON schema of the run config.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := engine.DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run event-driven backtests over historical price data",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the CSV or Parquet price file",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "symbol",
						Aliases:  []string{"S"},
						Usage:    "Symbol to include in the universe (repeatable)",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:     "start",
						Aliases:  []string{"s"},
						Usage:    "Start date in `YYYY-MM-DD` format",
						Required: true,
						Config: cli.TimestampConfig{
							Layouts: []string{dateLayout},
						},
					},
					&cli.TimestampFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
						Value:   time.Now(),
						Config: cli.TimestampConfig{
							Layouts: []string{dateLayout},
						},
					},
					&cli.StringFlag{
						Name:    "strategy",
						Usage:   "Strategy to run (buy_and_hold, ma_cross, rsi_reversion)",
						Value:   "buy_and_hold",
						Aliases: []string{"t"},
					},
					&cli.FloatFlag{
						Name:    "quantity",
						Usage:   "Order quantity per trade",
						Value:   1,
						Aliases: []string{"q"},
					},
					&cli.StringFlag{
						Name:    "config",
						Usage:   "Path to the run config YAML file",
						Aliases: []string{"c"},
					},
					&cli.StringFlag{
						Name:    "output",
						Usage:   "Path to write the YAML report to",
						Aliases: []string{"o"},
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the run config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(ErrorStyle.Render(err.Error()))
	}
}
