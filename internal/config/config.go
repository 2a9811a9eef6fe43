// Package config loads the service configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/SCREE/internal/errors"
	"github.com/copyleftdev/SCREE/internal/solver"
)

// Config is the full service configuration. Solver defaults match the stock
// option values of the solver packages.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Direction struct {
		AddFarPoints             bool    `env:"DC_ADD_FAR_POINTS" envDefault:"false"`
		FailOnIterationLimit     bool    `env:"DC_FAIL_ON_ITERATION_LIMIT" envDefault:"false"`
		FailOnQPFailure          bool    `env:"DC_FAIL_ON_QP_FAILURE" envDefault:"false"`
		TryAggregation           bool    `env:"DC_TRY_AGGREGATION" envDefault:"false"`
		TryGradientStep          bool    `env:"DC_TRY_GRADIENT_STEP" envDefault:"true"`
		TryShortenedStep         bool    `env:"DC_TRY_SHORTENED_STEP" envDefault:"true"`
		AggregationSizeThreshold float64 `env:"DC_AGGREGATION_SIZE_THRESHOLD" envDefault:"10"`
		DownshiftConstant        float64 `env:"DC_DOWNSHIFT_CONSTANT" envDefault:"0.01"`
		GradientStepsize         float64 `env:"DC_GRADIENT_STEPSIZE" envDefault:"1e-4"`
		ShortenedStepsize        float64 `env:"DC_SHORTENED_STEPSIZE" envDefault:"0.01"`
		StepAcceptanceTolerance  float64 `env:"DC_STEP_ACCEPTANCE_TOLERANCE" envDefault:"1e-8"`
		InnerIterationLimit      int     `env:"DC_INNER_ITERATION_LIMIT" envDefault:"20"`
	}
	Solver struct {
		InitialStationarityRadius float64       `env:"SOLVER_STATIONARITY_RADIUS" envDefault:"1.0"`
		InitialTrustRegionRadius  float64       `env:"SOLVER_TRUST_REGION_RADIUS" envDefault:"1.0"`
		StationarityTolerance     float64       `env:"SOLVER_STATIONARITY_TOLERANCE" envDefault:"1e-6"`
		OuterIterationLimit       int           `env:"SOLVER_OUTER_ITERATION_LIMIT" envDefault:"1000"`
		QPIterationLimit          int           `env:"SOLVER_QP_ITERATION_LIMIT" envDefault:"500"`
		PointSetSizeMaximum       int           `env:"SOLVER_POINT_SET_SIZE_MAXIMUM" envDefault:"250"`
		TimeLimit                 time.Duration `env:"SOLVER_TIME_LIMIT" envDefault:"0"`
	}
}

// Load parses the configuration from the environment and validates the
// solver portion.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing environment").WithComponent("config")
	}
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.SolverOptions().Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid solver configuration").WithComponent("config")
	}
	return cfg, nil
}

// SolverOptions maps the configuration onto solver options.
func (c *Config) SolverOptions() solver.Options {
	opts := solver.DefaultOptions()

	opts.Direction.AddFarPoints = c.Direction.AddFarPoints
	opts.Direction.FailOnIterationLimit = c.Direction.FailOnIterationLimit
	opts.Direction.FailOnQPFailure = c.Direction.FailOnQPFailure
	opts.Direction.TryAggregation = c.Direction.TryAggregation
	opts.Direction.TryGradientStep = c.Direction.TryGradientStep
	opts.Direction.TryShortenedStep = c.Direction.TryShortenedStep
	opts.Direction.AggregationSizeThreshold = c.Direction.AggregationSizeThreshold
	opts.Direction.DownshiftConstant = c.Direction.DownshiftConstant
	opts.Direction.GradientStepsize = c.Direction.GradientStepsize
	opts.Direction.ShortenedStepsize = c.Direction.ShortenedStepsize
	opts.Direction.StepAcceptanceTolerance = c.Direction.StepAcceptanceTolerance
	opts.Direction.InnerIterationLimit = c.Direction.InnerIterationLimit

	opts.InitialStationarityRadius = c.Solver.InitialStationarityRadius
	opts.InitialTrustRegionRadius = c.Solver.InitialTrustRegionRadius
	opts.StationarityTolerance = c.Solver.StationarityTolerance
	opts.OuterIterationLimit = c.Solver.OuterIterationLimit
	opts.QPIterationLimit = c.Solver.QPIterationLimit
	opts.PointSetSizeMaximum = c.Solver.PointSetSizeMaximum
	opts.TimeLimit = c.Solver.TimeLimit

	return opts
}
