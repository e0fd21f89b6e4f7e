package cli_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cerberus/pkg/cli"
)

func TestRun_UserAddWithAdminTag(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"cerberus",
		"--timeout", "30s",
		"--log-level", "error",
		"user", "add",
		"--repository-backend", "memory",
		"--id", "root",
		"--name", "Root",
		"--tag", "admin",
		"--tag", "it_only",
	}, "test")
	gt.NoError(t, err)
}

func TestRun_UserList(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"cerberus",
		"--log-level", "error",
		"user", "list",
		"--repository-backend", "memory",
	}, "test")
	gt.NoError(t, err)
}
