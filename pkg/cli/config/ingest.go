package config

import (
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
	"github.com/secmon-lab/cerberus/pkg/service/classifier"
	"github.com/secmon-lab/cerberus/pkg/service/ingest"
	"github.com/urfave/cli/v3"
)

// Ingest holds CLI flags for the ingestion pipeline and the tag
// classifier it uses
type Ingest struct {
	chunkSize      int
	chunkOverlap   int
	indexBatchSize int
	patternFile    string
	headWords      int
}

// Flags returns CLI flags for ingestion configuration
func (i *Ingest) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Chunk window size in characters",
			Value:       ingest.DefaultChunkSize,
			Sources:     cli.EnvVars("CERBERUS_CHUNK_SIZE"),
			Destination: &i.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Overlap between adjacent chunks in characters",
			Value:       ingest.DefaultChunkOverlap,
			Sources:     cli.EnvVars("CERBERUS_CHUNK_OVERLAP"),
			Destination: &i.chunkOverlap,
		},
		&cli.IntFlag{
			Name:        "index-batch-size",
			Usage:       "Maximum chunks per vector index write",
			Value:       ingest.DefaultIndexBatchSize,
			Sources:     cli.EnvVars("CERBERUS_INDEX_BATCH_SIZE"),
			Destination: &i.indexBatchSize,
		},
		&cli.StringFlag{
			Name:        "classifier-patterns",
			Usage:       "TOML file overriding the keyword pattern table",
			Sources:     cli.EnvVars("CERBERUS_CLASSIFIER_PATTERNS"),
			Destination: &i.patternFile,
		},
		&cli.IntFlag{
			Name:        "classifier-head-words",
			Usage:       "Number of leading words the classifier inspects",
			Sources:     cli.EnvVars("CERBERUS_CLASSIFIER_HEAD_WORDS"),
			Destination: &i.headWords,
		},
	}
}

// Configure builds the ingestion pipeline with its classifier
func (i *Ingest) Configure(repo interfaces.Repository, index interfaces.ChunkIndex, llmClient gollem.LLMClient) (*ingest.Pipeline, error) {
	var clsOpts []classifier.Option
	if i.patternFile != "" {
		table, err := classifier.LoadPatternTable(i.patternFile)
		if err != nil {
			return nil, err
		}
		clsOpts = append(clsOpts, classifier.WithPatternTable(table))
	}
	if i.headWords > 0 {
		clsOpts = append(clsOpts, classifier.WithHeadWords(i.headWords))
	}

	tagger, err := classifier.New(llmClient, clsOpts...)
	if err != nil {
		return nil, err
	}

	return ingest.New(repo, index, llmClient, tagger,
		ingest.WithChunking(i.chunkSize, i.chunkOverlap),
		ingest.WithIndexBatchSize(i.indexBatchSize),
	)
}
