package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/secmon-lab/cerberus/pkg/cli/config"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"github.com/secmon-lab/cerberus/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdUser() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage users and their access tags",
		Commands: []*cli.Command{
			cmdUserAdd(),
			cmdUserList(),
		},
	}
}

func cmdUserAdd() *cli.Command {
	var id string
	var name string
	var tagNames []string
	var roles []string
	var departments []string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "id",
			Usage:       "User ID",
			Required:    true,
			Destination: &id,
		},
		&cli.StringFlag{
			Name:        "name",
			Usage:       "Display name",
			Required:    true,
			Destination: &name,
		},
		&cli.StringSliceFlag{
			Name:        "tag",
			Aliases:     []string{"t"},
			Usage:       "Access tag to grant (repeatable, admin allowed)",
			Destination: &tagNames,
		},
		&cli.StringSliceFlag{
			Name:        "role",
			Usage:       "Organizational role (repeatable)",
			Destination: &roles,
		},
		&cli.StringSliceFlag{
			Name:        "department",
			Usage:       "Department membership (repeatable)",
			Destination: &departments,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "add",
		Usage: "Create or update a user",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			tags := parseUserTags(tagNames)

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, repo)

			user := &model.User{
				ID:          id,
				Name:        name,
				Roles:       roles,
				Departments: departments,
				AccessTags:  tags,
			}
			if err := repo.User().Put(ctx, user); err != nil {
				return err
			}

			fmt.Printf("stored user %s\n", id)
			return nil
		},
	}
}

// parseUserTags admits any non-empty tag. User grants are an open set:
// administrative tags such as admin sit outside the closed
// classification set that document tags are validated against.
func parseUserTags(names []string) types.TagSet {
	return types.NewTagSetFromStrings(names...)
}

func cmdUserList() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:  "list",
		Usage: "List users",
		Flags: repoCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, repo)

			users, err := repo.User().List(ctx)
			if err != nil {
				return err
			}

			for _, u := range users {
				line := fmt.Sprintf("%s\t%s\t%s", u.ID, u.Name, strings.Join(u.AccessTags.Strings(), ","))
				if u.IsAdmin() {
					line += "\t" + color.YellowString("admin")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
