package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/quantbt/quantbt/cmd/download/clients"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

const dateLayout = "2006-01-02"

// buildClient maps a provider name to a Downloader. API credentials come from
// the environment.
func buildClient(provider string) (clients.Downloader, error) {
	switch provider {
	case "polygon":
		return clients.NewPolygonClient(os.Getenv("POLYGON_API_KEY"))
	case "binance":
		return clients.NewBinanceClient(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY")), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: polygon, binance)", provider)
	}
}

// downloadAction downloads history for every requested symbol and writes the
// combined bars to one file.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	client, err := buildClient(cmd.String("provider"))
	if err != nil {
		return err
	}

	symbols := cmd.StringSlice("symbol")
	start := cmd.Timestamp("start")
	end := cmd.Timestamp("end")
	interval := types.Interval(cmd.String("interval"))

	bar := progressbar.Default(int64(len(symbols)), "downloading")

	var bars []types.PriceBar

	for _, symbol := range symbols {
		downloaded, err := client.Download(ctx, symbol, start, end, interval)
		if err != nil {
			return err
		}

		bars = append(bars, downloaded...)
		bar.Add(1)
	}

	if len(bars) == 0 {
		return fmt.Errorf("no bars downloaded for %v between %s and %s", symbols, start.Format(dateLayout), end.Format(dateLayout))
	}

	output := cmd.String("output")
	if err := writeBars(output, bars); err != nil {
		return err
	}

	fmt.Printf("Wrote %d bars to %s\n", len(bars), output)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical price data for backtesting",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "symbol",
				Aliases:  []string{"S"},
				Usage:    "Symbol to download (repeatable)",
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
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Bar interval (1m, 5m, 15m, 30m, 1h, 4h, 1d, 1w)",
				Value:   string(types.Interval1d),
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Data provider (polygon, binance)",
				Value:   "polygon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file, .csv or .parquet",
				Value:   "data/market_data.csv",
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
