package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Item is one entry of the item catalog.
type Item struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Value  int    `json:"value"`
}

// GenerationBest is the reportable form of a generation's top candidate.
type GenerationBest struct {
	Generation int    `json:"generation"`
	Weight     int    `json:"weight"`
	Value      int    `json:"value"`
	Fitness    int    `json:"fitness"`
	Bits       string `json:"bits"`
}

type GenerationDiagnostics struct {
	Generation        int     `json:"generation"`
	PopulationSize    int     `json:"population_size"`
	BestFitness       int     `json:"best_fitness"`
	MeanFitness       float64 `json:"mean_fitness"`
	MinFitness        int     `json:"min_fitness"`
	FitnessStdDev     float64 `json:"fitness_std_dev"`
	FeasibleCount     int     `json:"feasible_count"`
	DistinctCandidate int     `json:"distinct_candidates"`
}

type RunConfig struct {
	MaxWeight      int     `json:"max_weight"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutation_rate"`
	PopulationSize int     `json:"population_size"`
	Seed           int64   `json:"seed"`
	Selection      string  `json:"selection"`
	CatalogPath    string  `json:"catalog_path,omitempty"`
}

type RunRecord struct {
	VersionedRecord
	ID               string                  `json:"id"`
	CreatedAtUTC     string                  `json:"created_at_utc"`
	Config           RunConfig               `json:"config"`
	Items            []Item                  `json:"items"`
	BestByGeneration []GenerationBest        `json:"best_by_generation"`
	Diagnostics      []GenerationDiagnostics `json:"diagnostics,omitempty"`
}

// FinalBest returns the last generation's best, or false for an empty run.
func (r RunRecord) FinalBest() (GenerationBest, bool) {
	if len(r.BestByGeneration) == 0 {
		return GenerationBest{}, false
	}
	return r.BestByGeneration[len(r.BestByGeneration)-1], true
}
