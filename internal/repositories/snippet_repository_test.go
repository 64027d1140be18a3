package repositories_test

import (
	"testing"

	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestSnippetRepository_ForkCopiesAndCounts(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresSnippetRepository(db)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	source := &models.Snippet{
		AuthorID: alice.ID,
		Title:    "quicksort",
		Slug:     "quicksort",
		Code:     "func qs() {}",
		Language: "go",
		Tags:     datatypes.JSONSlice[string]{"sort"},
	}
	require.NoError(t, repo.CreateSnippet(source))

	fork := &models.Snippet{AuthorID: bob.ID, Title: "quicksort (fork)", Slug: "quicksort-fork"}
	require.NoError(t, repo.Fork(source, fork))

	require.NotNil(t, fork.ForkedFromID)
	assert.Equal(t, source.ID, *fork.ForkedFromID)
	assert.Equal(t, source.Code, fork.Code)
	assert.Equal(t, "go", fork.Language)

	reloaded, err := repo.GetSnippetByID(source.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ForksCount)

	var author models.User
	require.NoError(t, db.First(&author, bob.ID).Error)
	assert.Equal(t, 1, author.SnippetsCount)
}

func TestSnippetRepository_ListHidesPrivateFromOthers(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresSnippetRepository(db)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	require.NoError(t, repo.CreateSnippet(&models.Snippet{AuthorID: alice.ID, Title: "public", Slug: "a", Code: "x", Language: "go"}))
	require.NoError(t, repo.CreateSnippet(&models.Snippet{AuthorID: alice.ID, Title: "secret", Slug: "b", Code: "x", Language: "go", Visibility: models.VisibilityPrivate}))

	mine, err := repo.ListSnippets(repositories.SnippetFilter{ViewerID: alice.ID}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := repo.ListSnippets(repositories.SnippetFilter{ViewerID: bob.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "public", theirs[0].Title)

	found, err := repo.ListSnippets(repositories.SnippetFilter{Query: "PUB"}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestSnippetRepository_LikesTrackCounter(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresSnippetRepository(db)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	s := &models.Snippet{AuthorID: alice.ID, Title: "t", Slug: "t", Code: "x", Language: "go"}
	require.NoError(t, repo.CreateSnippet(s))

	require.NoError(t, repo.CreateLike(&models.SnippetLike{SnippetID: s.ID, UserID: bob.ID}))
	assert.Error(t, repo.CreateLike(&models.SnippetLike{SnippetID: s.ID, UserID: bob.ID}), "duplicate like")

	liked, err := repo.HasUserLiked(s.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	reloaded, err := repo.GetSnippetByID(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.LikesCount)

	require.NoError(t, repo.DeleteLike(s.ID, bob.ID))
	assert.ErrorIs(t, repo.DeleteLike(s.ID, bob.ID), repositories.ErrNotFound)

	reloaded, err = repo.GetSnippetByID(s.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.LikesCount)
}

func TestFollowRepository_CountersFollowEdges(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresFollowRepository(db)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	require.NoError(t, repo.CreateFollow(&models.Follow{FollowerID: alice.ID, FollowingID: bob.ID}))

	following, err := repo.IsFollowing(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	followers, err := repo.GetFollowers(bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, bob.ID).Error)
	assert.Equal(t, 1, reloaded.FollowersCount)

	require.NoError(t, repo.DeleteFollow(alice.ID, bob.ID))
	assert.ErrorIs(t, repo.DeleteFollow(alice.ID, bob.ID), repositories.ErrNotFound)

	require.NoError(t, db.First(&reloaded, bob.ID).Error)
	assert.Zero(t, reloaded.FollowersCount)
}
