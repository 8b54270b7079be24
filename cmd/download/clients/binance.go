package clients

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/quantbt/quantbt/internal/types"
)

// klinePageSize is the maximum number of klines Binance returns per request.
const klinePageSize = 1000

// BinanceClient downloads kline bars from the Binance public API. Klines are
// public data, so the client works without credentials.
type BinanceClient struct {
	client *binance.Client
}

// NewBinanceClient creates a client. apiKey and secret may be empty.
func NewBinanceClient(apiKey string, secret string) *BinanceClient {
	return &BinanceClient{
		client: binance.NewClient(apiKey, secret),
	}
}

// Download implements Downloader. It pages through klines until the range is
// exhausted.
func (c *BinanceClient) Download(ctx context.Context, symbol string, start time.Time, end time.Time, interval types.Interval) ([]types.PriceBar, error) {
	var bars []types.PriceBar

	cursor := start.UnixMilli()
	endMillis := end.UnixMilli()

	for cursor <= endMillis {
		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(string(interval)).
			StartTime(cursor).
			EndTime(endMillis).
			Limit(klinePageSize).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch klines for %s: %w", symbol, err)
		}

		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			bar, err := klineToBar(symbol, k)
			if err != nil {
				return nil, err
			}

			bars = append(bars, bar)
		}

		cursor = klines[len(klines)-1].CloseTime + 1
	}

	return bars, nil
}

func klineToBar(symbol string, k *binance.Kline) (types.PriceBar, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("invalid open price %q: %w", k.Open, err)
	}

	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("invalid high price %q: %w", k.High, err)
	}

	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("invalid low price %q: %w", k.Low, err)
	}

	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("invalid close price %q: %w", k.Close, err)
	}

	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("invalid volume %q: %w", k.Volume, err)
	}

	return types.PriceBar{
		Symbol: symbol,
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, nil
}
