package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/quantbt/quantbt/internal/logger"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBDataSource serves price history from a CSV or Parquet file through an
// in-memory DuckDB instance. The file must carry time, symbol, open, high,
// low, close, and volume columns; bars are assumed to already be at the
// requested interval.
type DuckDBDataSource struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	policy PartialUniversePolicy
	logger *logger.Logger
}

// NewDuckDB creates a data source over the given CSV or Parquet file.
func NewDuckDB(path string, policy PartialUniversePolicy, log *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataUnavailable, "failed to open DuckDB", err)
	}

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader = fmt.Sprintf("read_csv_auto('%s')", path)
	case ".parquet":
		reader = fmt.Sprintf("read_parquet('%s')", path)
	default:
		db.Close()

		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "unsupported data file extension %q", filepath.Ext(path))
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE VIEW market_data AS SELECT * FROM %s", reader)); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataUnavailable, err, "failed to create view over %s", path)
	}

	log.Debug("DuckDB data source initialized", zap.String("path", path))

	return &DuckDBDataSource{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		policy: policy,
		logger: log,
	}, nil
}

// GetPrice implements DataSource.
func (d *DuckDBDataSource) GetPrice(ctx context.Context, universe []string, start time.Time, end time.Time, interval types.Interval) (*types.PriceTable, error) {
	if len(universe) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidUniverse, "universe is empty")
	}

	query, args, err := d.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(squirrel.Eq{"symbol": universe}).
		Where(squirrel.GtOrEq{"time": start}).
		Where(squirrel.LtOrEq{"time": end}).
		OrderBy("time", "symbol").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build price query", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query price history", err)
	}
	defer rows.Close()

	var bars []types.PriceBar

	seen := make(map[string]bool)

	for rows.Next() {
		var bar types.PriceBar

		if err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan price row", err)
		}

		seen[bar.Symbol] = true

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read price rows", err)
	}

	if err := checkUniverse(universe, seen, d.policy, d.logger); err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no price history between %s and %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return types.NewPriceTable(bars), nil
}

// Close releases the underlying DuckDB instance.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

// checkUniverse applies the partial-universe policy to the set of symbols
// actually found.
func checkUniverse(universe []string, seen map[string]bool, policy PartialUniversePolicy, log *logger.Logger) error {
	var missing []string

	for _, symbol := range universe {
		if !seen[symbol] {
			missing = append(missing, symbol)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	if policy == PartialUniversePolicySkip {
		log.Warn("Skipping symbols with no price history",
			zap.Strings("symbols", missing),
		)

		return nil
	}

	return errors.Newf(errors.ErrCodeDataUnavailable, "no price history for symbols %v", missing)
}
