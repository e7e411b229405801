// Package generator renders placeholder templates into labeled samples by
// filling the slots with fake identity values. Every produced sample carries
// the rendered text, the character spans of the filled entities and,
// optionally, a tokenized view with one tag per token.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"piigen/internal/fakepii"
	"piigen/internal/logger"
	"piigen/internal/models"
	"piigen/internal/tagging"
	"piigen/internal/templates"
	"piigen/pkg/textutil"
)

const progressInterval = 1000

// Options control a generation run.
type Options struct {
	// Count is the number of samples to render.
	Count int

	// LowerCaseRatio is the share of samples rendered fully lowercased.
	LowerCaseRatio float64

	// IncludeMetadata attaches gender, nameset and country provenance to
	// every sample.
	IncludeMetadata bool

	// Genders and NameSets restrict which identity records are sampled.
	// Empty slices keep every record.
	Genders  []string
	NameSets []string

	// SpanToTag tokenizes every sample and emits one tag per token.
	SpanToTag bool

	// Scheme selects the token labeling scheme when SpanToTag is set.
	Scheme tagging.Scheme

	// Seed fixes the random stream. Zero seeds from the current time.
	Seed int64
}

// Report aggregates the statistics of one generation run.
type Report struct {
	Requested        int
	Generated        int
	LowercaseSamples int
	EntityCounts     map[string]int
	TokensTotal      int
	TokensInVocab    int
}

// Result is the output of a generation run.
type Result struct {
	Samples []models.InputSample
	Report  Report
}

// Generator renders labeled samples from templates and an identity store.
type Generator struct {
	opts   Options
	tmpls  []templates.Template
	store  *fakepii.Store
	subset *fakepii.Store
	vocab  *Vocabulary
	rng    *rand.Rand
	log    *logger.Logger
}

// New creates a Generator. The identity store is filtered down to the
// configured genders and namesets once, up front; repeated entities still
// draw from the full store. A nil rng seeds one from Options.Seed.
func New(log *logger.Logger, opts Options, tmpls []templates.Template, store *fakepii.Store, rng *rand.Rand) (*Generator, error) {
	if len(tmpls) == 0 {
		return nil, templates.ErrNoTemplates
	}

	if store == nil {
		return nil, fakepii.ErrNoRecords
	}

	subset, err := store.Filter(opts.Genders, opts.NameSets)
	if err != nil {
		return nil, fmt.Errorf("failed to filter identity records: %w", err)
	}

	if rng == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		rng = rand.New(rand.NewSource(seed))
	}

	log.Info("generator ready",
		"templates", len(tmpls),
		"identities", subset.Len(),
		"lower_case_ratio", opts.LowerCaseRatio)

	return &Generator{
		opts:   opts,
		tmpls:  tmpls,
		store:  store,
		subset: subset,
		rng:    rng,
		log:    log,
	}, nil
}

// SetVocabulary attaches a vocabulary used to count how many generated
// tokens fall outside it.
func (g *Generator) SetVocabulary(vocab *Vocabulary) {
	g.vocab = vocab
}

// Sample renders one labeled sample from a random template and a random
// identity record.
func (g *Generator) Sample() (*models.InputSample, error) {
	sample, _, err := g.sample()

	return sample, err
}

func (g *Generator) sample() (*models.InputSample, bool, error) {
	tmpl := &g.tmpls[g.rng.Intn(len(g.tmpls))]
	record := g.subset.Sample(g.rng)

	values := make(map[string]string, len(tmpl.Entities))

	for _, key := range tmpl.Entities {
		base := textutil.TrimIndex(key)

		if key == base {
			if value, ok := record[key]; ok {
				values[key] = value
				continue
			}
		} else if g.store.HasEntity(base) {
			// Repeated entities draw fresh values from the full store, so
			// two mentions of the same type name different things.
			value, err := g.store.SampleValue(g.rng, base)
			if err != nil {
				return nil, false, err
			}

			values[key] = value

			continue
		}

		g.log.Warn("template entity missing from identity data, filling empty",
			"entity", key, "template", tmpl.ID)

		values[key] = ""
	}

	toLower := g.rng.Float64() < g.opts.LowerCaseRatio

	sample := fill(tmpl, values, toLower)

	if g.opts.IncludeMetadata {
		sample.Metadata = &models.SampleMetadata{
			Gender:    record["GENDER"],
			NameSet:   record["NAMESET"],
			Country:   record["COUNTRY"],
			Lowercase: toLower,
		}
	}

	Consolidate(sample)

	// Tokens are created only after consolidation, so the tags carry the
	// folded entity types.
	if g.opts.SpanToTag {
		tagging.Apply(sample, g.opts.Scheme)
	}

	return sample, toLower, nil
}

// Generate renders the configured number of samples and aggregates the run's
// statistics.
func (g *Generator) Generate() (*Result, error) {
	result := &Result{
		Samples: make([]models.InputSample, 0, g.opts.Count),
		Report: Report{
			Requested:    g.opts.Count,
			EntityCounts: make(map[string]int),
		},
	}

	for i := 0; i < g.opts.Count; i++ {
		sample, toLower, err := g.sample()
		if err != nil {
			return nil, fmt.Errorf("failed to generate sample %d: %w", i, err)
		}

		g.observe(&result.Report, sample, toLower)
		result.Samples = append(result.Samples, *sample)

		if (i+1)%progressInterval == 0 {
			g.log.Debug("generation progress", "generated", i+1, "requested", g.opts.Count)
		}
	}

	g.log.Info("generation finished",
		"samples", result.Report.Generated,
		"lowercase", result.Report.LowercaseSamples,
		"entity_types", len(result.Report.EntityCounts))

	return result, nil
}

func (g *Generator) observe(report *Report, sample *models.InputSample, toLower bool) {
	report.Generated++

	if toLower {
		report.LowercaseSamples++
	}

	for _, span := range sample.Spans {
		report.EntityCounts[span.EntityType]++
	}

	report.TokensTotal += len(sample.Tokens)

	if g.vocab == nil {
		return
	}

	for _, token := range sample.Tokens {
		if g.vocab.Contains(token) {
			report.TokensInVocab++
		}
	}
}
