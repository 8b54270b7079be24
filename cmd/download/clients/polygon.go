package clients

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/quantbt/quantbt/internal/types"
)

// PolygonClient downloads aggregate bars from the Polygon REST API.
type PolygonClient struct {
	client *polygon.Client
}

// NewPolygonClient creates a client with the given API key.
func NewPolygonClient(apiKey string) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("polygon API key is not set")
	}

	return &PolygonClient{
		client: polygon.New(apiKey),
	}, nil
}

// polygonTimespan maps a bar interval to Polygon's multiplier and timespan.
func polygonTimespan(interval types.Interval) (int, models.Timespan, error) {
	switch interval {
	case types.Interval1m:
		return 1, models.Minute, nil
	case types.Interval5m:
		return 5, models.Minute, nil
	case types.Interval15m:
		return 15, models.Minute, nil
	case types.Interval30m:
		return 30, models.Minute, nil
	case types.Interval1h:
		return 1, models.Hour, nil
	case types.Interval4h:
		return 4, models.Hour, nil
	case types.Interval1d:
		return 1, models.Day, nil
	case types.Interval1w:
		return 1, models.Week, nil
	default:
		return 0, "", fmt.Errorf("interval %q is not supported by polygon", interval)
	}
}

// Download implements Downloader.
func (c *PolygonClient) Download(ctx context.Context, symbol string, start time.Time, end time.Time, interval types.Interval) ([]types.PriceBar, error) {
	multiplier, timespan, err := polygonTimespan(interval)
	if err != nil {
		return nil, err
	}

	params := models.ListAggsParams{
		Ticker:     symbol,
		From:       models.Millis(start),
		To:         models.Millis(end),
		Multiplier: multiplier,
		Timespan:   timespan,
	}

	iter := c.client.ListAggs(ctx, &params)

	var bars []types.PriceBar

	for iter.Next() {
		agg := iter.Item()

		bars = append(bars, types.PriceBar{
			Symbol: symbol,
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if iter.Err() != nil {
		return nil, fmt.Errorf("failed to list aggregates for %s: %w", symbol, iter.Err())
	}

	return bars, nil
}
