package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/ai-community/internal/model"
)

func seedCharacter(t *testing.T, r repos, id string) *model.Character {
	t.Helper()
	ch := &model.Character{
		ID:           id,
		Name:         "角色-" + id,
		Personality:  "好奇",
		Profession:   "工程师",
		Interests:    []string{"科技"},
		Active:       true,
		PostInterval: 5 * time.Minute,
	}
	require.NoError(t, r.characters.Create(context.Background(), ch))
	return ch
}

func seedPost(t *testing.T, r repos, authorID string) *model.Post {
	t.Helper()
	p := &model.Post{ID: uuid.New().String(), CharacterID: &authorID, Content: "一条帖子"}
	require.NoError(t, r.posts.Create(context.Background(), p))
	return p
}

func TestGeneratePost(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	ch := &stubChannel{responses: []string{"今天调通了一个棘手的 bug"}}
	g := NewGenerator(r.characters, r.posts, r.comments, r.interactions, ch)

	author := seedCharacter(t, r, "a")

	post, err := g.GeneratePost(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "今天调通了一个棘手的 bug", post.Content)
	require.NotNil(t, post.CharacterID)
	assert.Equal(t, author.ID, *post.CharacterID)
	assert.False(t, post.HumanInspired)

	// 行动提交：last_posted 置位，互动计数 +1
	fresh, err := r.characters.GetByID(ctx, author.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.LastPosted)
	assert.EqualValues(t, 1, fresh.InteractionCount)

	// 互动流水一条 POST
	total, err := r.interactions.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestGeneratePostHumanInspired(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	ch := &stubChannel{}
	g := NewGenerator(r.characters, r.posts, r.comments, r.interactions, ch)

	author := seedCharacter(t, r, "a")
	post := seedPost(t, r, author.ID)
	require.NoError(t, r.interactions.Create(ctx, &model.Interaction{
		ID:                uuid.New().String(),
		Type:              model.InteractionComment,
		IsHumanSource:     true,
		TargetCharacterID: &author.ID,
		PostID:            &post.ID,
		Content:           "写得真好",
	}))

	out, err := g.GeneratePost(ctx, author.ID)
	require.NoError(t, err)
	assert.True(t, out.HumanInspired)
}

func TestGenerateCommentRejectsOwnPost(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	g := NewGenerator(r.characters, r.posts, r.comments, r.interactions, &stubChannel{})

	author := seedCharacter(t, r, "a")
	post := seedPost(t, r, author.ID)

	_, err := g.GenerateComment(ctx, author.ID, post.ID)
	assert.ErrorIs(t, err, ErrOwnPost)

	n, err := r.comments.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGenerateComment(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	ch := &stubChannel{responses: []string{"有同感"}}
	g := NewGenerator(r.characters, r.posts, r.comments, r.interactions, ch)

	author := seedCharacter(t, r, "a")
	commenter := seedCharacter(t, r, "b")
	post := seedPost(t, r, author.ID)

	comment, err := g.GenerateComment(ctx, commenter.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.PostID)
	require.NotNil(t, comment.CharacterID)
	assert.Equal(t, commenter.ID, *comment.CharacterID)
	assert.Nil(t, comment.ParentCommentID)
}

func TestGenerateReplyTargetsHumanCommentToPostAuthor(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	ch := &stubChannel{responses: []string{"谢谢你的留言"}}
	g := NewGenerator(r.characters, r.posts, r.comments, r.interactions, ch)

	author := seedCharacter(t, r, "a")
	post := seedPost(t, r, author.ID)
	human := &model.Comment{
		ID: uuid.New().String(), PostID: post.ID, IsHuman: true, Content: "加油",
	}
	require.NoError(t, r.comments.Create(ctx, human))

	reply, err := g.GenerateReply(ctx, author.ID, human.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, human.ID, *reply.ParentCommentID)
	require.NotNil(t, reply.CharacterID)
	assert.Equal(t, author.ID, *reply.CharacterID)
}

func TestGeneratorProviderFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	ch := &stubChannel{err: errors.New("upstream down")}
	g := NewGenerator(r.characters, r.posts, r.comments, r.interactions, ch)

	author := seedCharacter(t, r, "a")

	_, err := g.GeneratePost(ctx, author.ID)
	require.Error(t, err)

	posts, err := r.posts.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, posts)
	interactions, err := r.interactions.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, interactions)

	fresh, err := r.characters.GetByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Nil(t, fresh.LastPosted)
	assert.Zero(t, fresh.InteractionCount)
}

func TestGeneratePostUnknownCharacter(t *testing.T) {
	r := newRepos(setupServiceDB(t))
	g := NewGenerator(r.characters, r.posts, r.comments, r.interactions, &stubChannel{})

	_, err := g.GeneratePost(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

// 批量发帖优先照顾互动最少的角色
func TestGenerateBatchPostsLeastActiveFirst(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	ch := &stubChannel{}
	g := NewGenerator(r.characters, r.posts, r.comments, r.interactions, ch)

	busy := seedCharacter(t, r, "a")
	busy.InteractionCount = 5
	require.NoError(t, r.characters.Update(ctx, busy))
	seedCharacter(t, r, "b")
	mid := seedCharacter(t, r, "c")
	mid.InteractionCount = 2
	require.NoError(t, r.characters.Update(ctx, mid))

	posts, err := g.GenerateBatchPosts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	authors := map[string]bool{}
	for _, p := range posts {
		require.NotNil(t, p.CharacterID)
		authors[*p.CharacterID] = true
	}
	assert.True(t, authors["b"])
	assert.True(t, authors["c"])
	assert.False(t, authors["a"])
}

func TestGenerateInteractions(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	ch := &stubChannel{}
	g := NewGenerator(r.characters, r.posts, r.comments, r.interactions, ch)

	author := seedCharacter(t, r, "a")
	seedCharacter(t, r, "b")
	seedPost(t, r, author.ID)

	// 固定随机源：概率门必过，每帖一个评论者
	comments, err := g.GenerateInteractions(ctx, 3, 0.4, &stubRand{f: 0, n: 0})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.NotNil(t, comments[0].CharacterID)
	assert.Equal(t, "b", *comments[0].CharacterID)
}
