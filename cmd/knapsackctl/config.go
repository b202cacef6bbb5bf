package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"knapsackga/internal/evo"
	"knapsackga/pkg/knapsackga"
)

var errInvalidConfig = errors.New("invalid run config")

// runConfig is the YAML form of a run request. Flags set on the command line
// override file values.
type runConfig struct {
	Catalog        string  `yaml:"catalog" validate:"required"`
	MaxWeight      int     `yaml:"max_weight" validate:"gt=0"`
	Generations    int     `yaml:"generations" validate:"gt=0"`
	MutationRate   float64 `yaml:"mutation_rate" validate:"gte=0,lte=1"`
	PopulationSize int     `yaml:"population_size" validate:"gte=0"`
	Seed           int64   `yaml:"seed"`
	Selection      string  `yaml:"selection" validate:"selector"`
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("selector", func(fl validator.FieldLevel) bool {
		_, err := evo.ResolveSelector(fl.Field().String())
		return err == nil
	})
	return v
}

func defaultRunConfig() runConfig {
	return runConfig{
		MutationRate: evo.DefaultMutationRate,
		Seed:         1,
		Selection:    evo.DefaultSelection,
	}
}

// loadRunConfig reads a YAML run config over the defaults. A relative
// catalog path is resolved against the config file's directory.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return runConfig{}, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return runConfig{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.Catalog != "" && !filepath.IsAbs(cfg.Catalog) {
		cfg.Catalog = filepath.Join(filepath.Dir(path), cfg.Catalog)
	}
	return cfg, nil
}

func (c runConfig) validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch {
		case fe.Tag() == "selector":
			msgs = append(msgs, fmt.Sprintf("%s: unknown selector %q (have %s)", fe.Field(), fe.Value(), strings.Join(evo.ListSelectors(), ", ")))
		case fe.Param() != "":
			msgs = append(msgs, fmt.Sprintf("%s: must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", errInvalidConfig, strings.Join(msgs, "; "))
}

func (c runConfig) request() knapsackga.RunRequest {
	return knapsackga.RunRequest{
		CatalogPath:    c.Catalog,
		MaxWeight:      c.MaxWeight,
		Generations:    c.Generations,
		MutationRate:   c.MutationRate,
		PopulationSize: c.PopulationSize,
		Seed:           c.Seed,
		Selection:      c.Selection,
	}
}

// runFlags mirrors runConfig for the command line.
type runFlags struct {
	configPath string
	values     runConfig
}

func (f *runFlags) register(cmd *cobra.Command) {
	defaults := defaultRunConfig()
	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "YAML run config")
	flags.StringVar(&f.values.Catalog, "catalog", "", "item catalog file (name;weight;value per line)")
	flags.IntVar(&f.values.MaxWeight, "max-weight", 0, "knapsack capacity")
	flags.IntVar(&f.values.Generations, "generations", 0, "number of generations")
	flags.Float64Var(&f.values.MutationRate, "mutation-rate", defaults.MutationRate, "per-bit flip probability")
	flags.IntVar(&f.values.PopulationSize, "population", 0, "population size, 0 for the item count")
	flags.Int64Var(&f.values.Seed, "seed", defaults.Seed, "random seed")
	flags.StringVar(&f.values.Selection, "selection", defaults.Selection, "parent selection: "+strings.Join(evo.ListSelectors(), "|"))
}

// resolve merges the config file, if any, with explicitly set flags.
func (f *runFlags) resolve(cmd *cobra.Command) (runConfig, error) {
	cfg := f.values
	if f.configPath != "" {
		loaded, err := loadRunConfig(f.configPath)
		if err != nil {
			return runConfig{}, err
		}
		cfg = applyFlagOverrides(cmd, loaded, f.values)
	}
	if err := cfg.validate(); err != nil {
		return runConfig{}, err
	}
	return cfg, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg, flags runConfig) runConfig {
	changed := cmd.Flags().Changed
	if changed("catalog") {
		cfg.Catalog = flags.Catalog
	}
	if changed("max-weight") {
		cfg.MaxWeight = flags.MaxWeight
	}
	if changed("generations") {
		cfg.Generations = flags.Generations
	}
	if changed("mutation-rate") {
		cfg.MutationRate = flags.MutationRate
	}
	if changed("population") {
		cfg.PopulationSize = flags.PopulationSize
	}
	if changed("seed") {
		cfg.Seed = flags.Seed
	}
	if changed("selection") {
		cfg.Selection = flags.Selection
	}
	return cfg
}
