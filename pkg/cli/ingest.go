package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/cli/config"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"github.com/secmon-lab/cerberus/pkg/service/ingest"
	"github.com/secmon-lab/cerberus/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var userID string
	var tagNames []string
	var geminiCfg config.Gemini
	var repoCfg config.Repository
	var indexCfg config.Index
	var retrievalCfg config.Retrieval
	var ingestCfg config.Ingest

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID performing the ingestion (must be admin)",
			Required:    true,
			Sources:     cli.EnvVars("CERBERUS_USER"),
			Destination: &userID,
		},
		&cli.StringSliceFlag{
			Name:        "tag",
			Aliases:     []string{"t"},
			Usage:       "Access tag to apply to all files, skipping classification (repeatable)",
			Sources:     cli.EnvVars("CERBERUS_INGEST_TAGS"),
			Destination: &tagNames,
		},
	}
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, retrievalCfg.Flags()...)
	flags = append(flags, ingestCfg.Flags()...)

	return &cli.Command{
		Name:      "ingest",
		Aliases:   []string{"i"},
		Usage:     "Ingest document files into the index",
		ArgsUsage: "<file...>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("at least one file is required")
			}

			tags, err := parseTags(tagNames)
			if err != nil {
				return err
			}

			files := make([]ingest.RawFile, 0, len(paths))
			for _, path := range paths {
				// #nosec G304 - path is expected to be provided by CLI argument
				data, err := os.ReadFile(path)
				if err != nil {
					return goerr.Wrap(err, "failed to read file", goerr.V("path", path))
				}
				files = append(files, ingest.RawFile{
					Name: filepath.Base(path),
					Data: data,
				})
			}

			s, err := buildStack(ctx, &geminiCfg, &repoCfg, &indexCfg, &retrievalCfg, &ingestCfg)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			requester, err := lookupUser(ctx, s.Repo, userID)
			if err != nil {
				return err
			}

			result, err := s.UseCases.Plan(ctx, "ingest", requester,
				usecase.WithFiles(files),
				usecase.WithAccessTags(tags),
			)
			if err != nil {
				return err
			}

			fmt.Println(result.Result)
			for _, f := range result.Files {
				printFileResult(f)
			}
			return nil
		},
	}
}

func parseTags(names []string) (types.TagSet, error) {
	tags := make([]types.AccessTag, 0, len(names))
	for _, name := range names {
		tag, err := types.ParseAccessTag(name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return types.NewTagSet(tags...), nil
}

func printFileResult(f model.FileResult) {
	if f.Status == model.FileStatusSuccess {
		fmt.Printf("  %s %s (document %s, %d chunks)\n",
			color.GreenString("ok"), f.Filename, f.DocumentID, f.ChunksUploaded)
		return
	}
	fmt.Printf("  %s %s (%s)\n",
		color.RedString("failed"), f.Filename, f.Reason)
}
