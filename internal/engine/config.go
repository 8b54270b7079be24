package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/quantbt/quantbt/internal/broker"
	"github.com/quantbt/quantbt/internal/datasource"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
	"gopkg.in/yaml.v2"
)

// RunConfig carries every knob of a run as an explicit field; no hidden
// defaults mutate behavior silently. Rates are fractions, not percentages.
type RunConfig struct {
	InitialCash           float64                          `yaml:"initial_cash" json:"initial_cash" validate:"required,gt=0" jsonschema:"title=Initial Cash,description=Starting cash in account currency,minimum=0"`
	CommissionRate        float64                          `yaml:"commission_rate" json:"commission_rate" validate:"gte=0,lt=1" jsonschema:"title=Commission Rate,description=Commission as a fraction of executed notional"`
	SlippageRate          float64                          `yaml:"slippage_rate" json:"slippage_rate" validate:"gte=0,lt=1" jsonschema:"title=Slippage Rate,description=Adverse price adjustment as a fraction of the reference price"`
	OversizedOrderPolicy  broker.OversizedOrderPolicy      `yaml:"oversized_order_policy" json:"oversized_order_policy" validate:"required,oneof=clip reject" jsonschema:"title=Oversized Order Policy,description=Whether unaffordable buys are clipped or rejected"`
	PartialUniversePolicy datasource.PartialUniversePolicy `yaml:"partial_universe_policy" json:"partial_universe_policy" validate:"required,oneof=abort skip" jsonschema:"title=Partial Universe Policy,description=Whether missing symbols abort the run or are skipped"`
	Interval              types.Interval                   `yaml:"interval" json:"interval" validate:"required" jsonschema:"title=Interval,description=Bar interval of the simulated calendar"`
	PeriodsPerYear        float64                          `yaml:"periods_per_year" json:"periods_per_year" validate:"required,gt=0" jsonschema:"title=Periods Per Year,description=Annualization factor (252 for daily bars)"`
	VaRConfidence         float64                          `yaml:"var_confidence" json:"var_confidence" validate:"required,gt=0,lt=1" jsonschema:"title=VaR Confidence,description=Quantile of the return distribution reported as Value-at-Risk"`
	StartTime             optional.Option[time.Time]       `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the backtest period"`
	EndTime               optional.Option[time.Time]       `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the backtest period"`
}

// DefaultConfig returns the documented defaults: daily bars, zero costs,
// clip oversized buys, abort on missing symbols, 5% VaR.
func DefaultConfig() RunConfig {
	return RunConfig{
		InitialCash:           100000,
		CommissionRate:        0,
		SlippageRate:          0,
		OversizedOrderPolicy:  broker.OversizedOrderPolicyClip,
		PartialUniversePolicy: datasource.PartialUniversePolicyAbort,
		Interval:              types.Interval1d,
		PeriodsPerYear:        252,
		VaRConfidence:         0.05,
		StartTime:             optional.None[time.Time](),
		EndTime:               optional.None[time.Time](),
	}
}

// UnmarshalYAML implements custom unmarshaling for RunConfig. Absent fields
// keep whatever value the receiver already holds, so parsing on top of
// DefaultConfig yields defaults for anything the file omits.
func (c *RunConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type config struct {
		InitialCash           *float64                          `yaml:"initial_cash"`
		CommissionRate        *float64                          `yaml:"commission_rate"`
		SlippageRate          *float64                          `yaml:"slippage_rate"`
		OversizedOrderPolicy  *broker.OversizedOrderPolicy      `yaml:"oversized_order_policy"`
		PartialUniversePolicy *datasource.PartialUniversePolicy `yaml:"partial_universe_policy"`
		Interval              *types.Interval                   `yaml:"interval"`
		PeriodsPerYear        *float64                          `yaml:"periods_per_year"`
		VaRConfidence         *float64                          `yaml:"var_confidence"`
		StartTime             *time.Time                        `yaml:"start_time"`
		EndTime               *time.Time                        `yaml:"end_time"`
	}

	var parsed config
	if err := unmarshal(&parsed); err != nil {
		return err
	}

	if parsed.InitialCash != nil {
		c.InitialCash = *parsed.InitialCash
	}

	if parsed.CommissionRate != nil {
		c.CommissionRate = *parsed.CommissionRate
	}

	if parsed.SlippageRate != nil {
		c.SlippageRate = *parsed.SlippageRate
	}

	if parsed.OversizedOrderPolicy != nil {
		c.OversizedOrderPolicy = *parsed.OversizedOrderPolicy
	}

	if parsed.PartialUniversePolicy != nil {
		c.PartialUniversePolicy = *parsed.PartialUniversePolicy
	}

	if parsed.Interval != nil {
		c.Interval = *parsed.Interval
	}

	if parsed.PeriodsPerYear != nil {
		c.PeriodsPerYear = *parsed.PeriodsPerYear
	}

	if parsed.VaRConfidence != nil {
		c.VaRConfidence = *parsed.VaRConfidence
	}

	if parsed.StartTime != nil {
		c.StartTime = optional.Some(*parsed.StartTime)
	}

	if parsed.EndTime != nil {
		c.EndTime = optional.Some(*parsed.EndTime)
	}

	return nil
}

// ParseConfig parses YAML content on top of the defaults and validates the
// result.
func ParseConfig(content string) (RunConfig, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return RunConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse run config", err)
	}

	if err := config.Validate(); err != nil {
		return RunConfig{}, err
	}

	return config, nil
}

// Validate validates the RunConfig struct.
func (c *RunConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid run config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidDateRange, "end time is before start time")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the RunConfig.
func (c *RunConfig) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "OversizedOrderPolicy") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: []any{broker.OversizedOrderPolicyClip, broker.OversizedOrderPolicyReject},
				}
			}

			if strings.Contains(t.String(), "PartialUniversePolicy") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: []any{datasource.PartialUniversePolicyAbort, datasource.PartialUniversePolicySkip},
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "run-config"
	schema.Description = "Configuration schema for a backtest run"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the RunConfig.
func (c *RunConfig) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// Parameters echoes the config into the reproducibility record attached to a
// result.
func (c RunConfig) Parameters(runID string, universe []string, start time.Time, end time.Time, strategyName string) types.RunParameters {
	echo := make([]string, len(universe))
	copy(echo, universe)

	return types.RunParameters{
		RunID:                runID,
		Universe:             echo,
		Start:                start,
		End:                  end,
		Interval:             c.Interval,
		InitialCash:          c.InitialCash,
		CommissionRate:       c.CommissionRate,
		SlippageRate:         c.SlippageRate,
		OversizedOrderPolicy: string(c.OversizedOrderPolicy),
		PeriodsPerYear:       c.PeriodsPerYear,
		VaRConfidence:        c.VaRConfidence,
		StrategyName:         strategyName,
	}
}
