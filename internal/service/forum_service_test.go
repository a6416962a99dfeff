package service

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForumPostLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	svc := NewForumService(repository.NewForumRepository(db), users, nil)
	ana := testutil.CreateStudent(t, db, "ana", "2022", "C")
	ben := testutil.CreateStudent(t, db, "ben", "2022", "C")
	admin := testutil.CreateUser(t, db, "root", model.Admin)
	ctx := context.Background()

	post, err := svc.Create(ana.ID, ForumPostRequest{
		Title:   " Help with AVL rotations ",
		Content: "Which case needs a double rotation?",
		Subject: "DSA",
		Tags:    []string{"trees", "avl", "trees"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Help with AVL rotations", post.Title)
	assert.Equal(t, []string{"trees", "avl"}, []string(post.Tags))

	_, err = svc.Create(ben.ID, ForumPostRequest{Title: "Paging", Content: "TLB misses", Subject: "OS"})
	require.NoError(t, err)

	posts, total, err := svc.List(ForumListQuery{Subject: "DSA"}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "ana", posts[0].Author.Name)

	_, total, err = svc.List(ForumListQuery{Search: "TLB"}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, err = svc.Comment(ben.ID, post.ID, ForumCommentRequest{Content: " left-right case "})
	require.NoError(t, err)

	got, err := svc.Get(ctx, ben.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "left-right case", got.Comments[0].Content)

	// 没有 redis 时每次打开都计数
	got, err = svc.Get(ctx, ben.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)

	err = svc.Delete(util.Identity{UserID: ben.ID, Role: model.Student}, post.ID)
	assert.Equal(t, 403, util.StatusOf(err))

	require.NoError(t, svc.Delete(util.Identity{UserID: admin.ID, Role: model.Admin}, post.ID))
	_, err = svc.Get(ctx, ana.ID, post.ID)
	assert.ErrorIs(t, err, util.ErrPostNotFound)

	_, err = svc.Comment(ana.ID, post.ID, ForumCommentRequest{Content: "hello?"})
	assert.ErrorIs(t, err, util.ErrPostNotFound)
}
