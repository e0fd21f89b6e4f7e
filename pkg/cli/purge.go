package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/cli/config"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdPurge() *cli.Command {
	var userID string
	var geminiCfg config.Gemini
	var repoCfg config.Repository
	var indexCfg config.Index
	var retrievalCfg config.Retrieval
	var ingestCfg config.Ingest

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID performing the purge (must be admin)",
			Required:    true,
			Sources:     cli.EnvVars("CERBERUS_USER"),
			Destination: &userID,
		},
	}
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, retrievalCfg.Flags()...)
	flags = append(flags, ingestCfg.Flags()...)

	return &cli.Command{
		Name:      "purge",
		Usage:     "Remove a document and its chunks",
		ArgsUsage: "<document-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("exactly one document ID is required")
			}
			docID := model.DocumentID(c.Args().First())

			s, err := buildStack(ctx, &geminiCfg, &repoCfg, &indexCfg, &retrievalCfg, &ingestCfg)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			requester, err := lookupUser(ctx, s.Repo, userID)
			if err != nil {
				return err
			}

			if err := s.UseCases.Purge(ctx, docID, requester); err != nil {
				return err
			}

			fmt.Printf("purged %s\n", docID)
			return nil
		},
	}
}
