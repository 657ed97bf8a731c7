// Command generate_ratings writes a seeded synthetic ratings dataset for
// exercising the evaluation pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	descriptive "github.com/montanaflynn/stats"

	"github.com/ahrav/gavel-rubric/infrastructure/ratings"
	"github.com/ahrav/gavel-rubric/infrastructure/synthetic"
	"github.com/ahrav/gavel-rubric/internal/domain"
)

func main() {
	defaults := synthetic.DefaultConfig()
	var (
		seed     = flag.Uint64("seed", defaults.Seed, "Random seed")
		nPrompts = flag.Int("n-prompts", defaults.NPrompts, "Number of generated prompt ids")
		raters   = flag.Int("raters", defaults.Raters, "Number of raters")
		bias     = flag.Float64("bias", defaults.RubricBias, "Rubric advantage added before noise")
		prompts  = flag.String("prompts", "", "Prompt catalog to rate instead of generated ids")
		outDir   = flag.String("out", "data", "Output directory")
		format   = flag.String("format", "csv", "Table format (csv or xlsx)")
	)
	flag.Parse()

	cfg := defaults
	cfg.Seed = *seed
	cfg.NPrompts = *nPrompts
	cfg.Raters = *raters
	cfg.RubricBias = *bias
	if *prompts != "" {
		ids, err := ratings.LoadPromptIDs(context.Background(), *prompts)
		if err != nil {
			log.Fatalf("Failed to load prompt catalog: %v", err)
		}
		cfg.PromptIDs = ids
	}

	ds, err := synthetic.Generate(cfg)
	if err != nil {
		log.Fatalf("Failed to generate ratings: %v", err)
	}

	files, err := synthetic.WriteDataset(*outDir, ds, ratings.Format(*format), *prompts == "")
	if err != nil {
		log.Fatalf("Failed to save dataset: %v", err)
	}

	fmt.Printf("Generated synthetic ratings:\n")
	fmt.Printf("- Control: %s\n", files.Control)
	fmt.Printf("- Rubric: %s\n", files.Rubric)
	if files.Prompts != "" {
		fmt.Printf("- Prompts: %s\n", files.Prompts)
	}
	fmt.Printf("- Seed: %d\n", cfg.Seed)
	fmt.Printf("- Ratings per condition: %d\n", len(ds.Control.Ratings))
	fmt.Printf("- Mean rating (control): %.2f\n", meanRating(ds.Control))
	fmt.Printf("- Mean rating (rubric): %.2f\n", meanRating(ds.Rubric))
	fmt.Printf("\nDataset saved successfully!\n")
}

func meanRating(c domain.ConditionRatings) float64 {
	values := make([]float64, len(c.Ratings))
	for i, r := range c.Ratings {
		values[i] = r.Value
	}
	m, err := descriptive.Mean(values)
	if err != nil {
		return 0
	}
	return m
}
