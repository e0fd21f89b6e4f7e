package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdQuery() *cli.Command {
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
			Usage:       "User ID issuing the query",
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
		Name:      "query",
		Aliases:   []string{"q"},
		Usage:     "Ask a question against the ingested documents",
		ArgsUsage: "<question...>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(question) == "" {
				return goerr.New("question is required")
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

			result, err := s.UseCases.Plan(ctx, question, requester)
			if err != nil {
				return err
			}

			fmt.Println(color.CyanString("Q: ") + question)
			fmt.Println(color.GreenString("A: ") + result.Result)
			return nil
		},
	}
}
