package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type userDoc struct {
	ID          string   `firestore:"ID"`
	Name        string   `firestore:"Name"`
	Roles       []string `firestore:"Roles"`
	Departments []string `firestore:"Departments"`
	AccessTags  []string `firestore:"AccessTags"`
}

func toUserDoc(u *model.User) *userDoc {
	return &userDoc{
		ID:          u.ID,
		Name:        u.Name,
		Roles:       u.Roles,
		Departments: u.Departments,
		AccessTags:  u.AccessTags.Strings(),
	}
}

func docToUser(doc *firestore.DocumentSnapshot) (*model.User, error) {
	var d userDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return &model.User{
		ID:          d.ID,
		Name:        d.Name,
		Roles:       d.Roles,
		Departments: d.Departments,
		AccessTags:  types.NewTagSetFromStrings(d.AccessTags...),
	}, nil
}

type userRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newUserRepository(client *firestore.Client) *userRepository {
	return &userRepository{
		client: client,
	}
}

func (r *userRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "users")
}

func (r *userRepository) Put(ctx context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user")
	}

	if _, err := r.collection().Doc(user.ID).Set(ctx, toUserDoc(user)); err != nil {
		return goerr.Wrap(err, "failed to put user", goerr.V("id", user.ID))
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	doc, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	return docToUser(doc)
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	iter := r.collection().OrderBy("ID", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var result []*model.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate users")
		}

		u, err := docToUser(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal user")
		}
		result = append(result, u)
	}

	return result, nil
}
