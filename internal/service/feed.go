package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/ai-community/internal/cache"
	"github.com/d60-Lab/ai-community/internal/model"
	"github.com/d60-Lab/ai-community/internal/repository"
	"github.com/d60-Lab/ai-community/pkg/logger"
)

const defaultFeedSize = 30

var (
	ErrMissingAuthor = errors.New("character id required for AI-authored content")
	ErrParentMissing = errors.New("parent comment not found")
)

// Feed 内容 CRUD 面：人类与 AI 的发帖/评论/点赞都从这里落库，
// 人类动作同时写入互动流水（驱动人类事件应答环路）
type Feed struct {
	characters   repository.CharacterRepository
	posts        repository.PostRepository
	comments     repository.CommentRepository
	interactions repository.InteractionRepository
	feedCache    *cache.FeedCache // 可为空，空则直读库
}

func NewFeed(
	characters repository.CharacterRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	interactions repository.InteractionRepository,
	feedCache *cache.FeedCache,
) *Feed {
	return &Feed{
		characters:   characters,
		posts:        posts,
		comments:     comments,
		interactions: interactions,
		feedCache:    feedCache,
	}
}

// ListPosts 最近帖子，优先走缓存
func (f *Feed) ListPosts(ctx context.Context, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		limit = defaultFeedSize
	}
	if f.feedCache != nil {
		if posts, ok := f.feedCache.GetRecent(ctx, limit); ok {
			return posts, nil
		}
	}
	posts, err := f.posts.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if f.feedCache != nil {
		f.feedCache.SetRecent(ctx, limit, posts)
	}
	return posts, nil
}

// GetPost 帖子详情及全部评论
func (f *Feed) GetPost(ctx context.Context, id string) (*model.Post, []*model.Comment, error) {
	post, err := f.posts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	comments, err := f.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return post, comments, nil
}

// ListComments 某帖全部评论（含回复）
func (f *Feed) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	return f.comments.ListByPost(ctx, postID)
}

// GetComment 评论详情
func (f *Feed) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	return f.comments.GetByID(ctx, id)
}

// CreatePost 人工创建帖子（运营/测试路径），AI 生成走 Generator
func (f *Feed) CreatePost(ctx context.Context, characterID string, content string, humanInspired bool, source string) (*model.Post, error) {
	ch, err := f.characters.GetByID(ctx, characterID)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:                uuid.New().String(),
		CharacterID:       &ch.ID,
		Content:           content,
		HumanInspired:     humanInspired,
		InspirationSource: source,
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	f.record(ctx, &model.Interaction{
		ID:                uuid.New().String(),
		Type:              model.InteractionPost,
		SourceCharacterID: &ch.ID,
		PostID:            &post.ID,
		Content:           content,
	})
	if err := f.characters.IncrementInteractionCount(ctx, ch.ID); err != nil {
		logger.Warn("interaction count update failed",
			zap.String("character_id", ch.ID), zap.Error(err))
	}
	f.invalidate(ctx)
	return post, nil
}

// CreateComment 创建评论或回复；人类评论写入待应答流水
func (f *Feed) CreateComment(ctx context.Context, postID string, characterID *string, isHuman bool, content string, parentCommentID *string) (*model.Comment, error) {
	post, err := f.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !isHuman && characterID == nil {
		return nil, ErrMissingAuthor
	}
	if parentCommentID != nil {
		if _, err := f.comments.GetByID(ctx, *parentCommentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrParentMissing
			}
			return nil, err
		}
	}

	comment := &model.Comment{
		ID:              uuid.New().String(),
		PostID:          postID,
		IsHuman:         isHuman,
		Content:         content,
		ParentCommentID: parentCommentID,
	}
	if !isHuman {
		comment.CharacterID = characterID
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	itype := model.InteractionComment
	if parentCommentID != nil {
		itype = model.InteractionReply
	}
	var source *string
	if !isHuman {
		source = characterID
	}
	f.record(ctx, &model.Interaction{
		ID:                uuid.New().String(),
		Type:              itype,
		SourceCharacterID: source,
		TargetCharacterID: post.CharacterID,
		IsHumanSource:     isHuman,
		PostID:            &postID,
		CommentID:         &comment.ID,
		Content:           content,
	})

	if isHuman && post.CharacterID != nil {
		if err := f.characters.IncrementHumanInteractions(ctx, *post.CharacterID); err != nil {
			logger.Warn("human interaction count update failed",
				zap.String("character_id", *post.CharacterID), zap.Error(err))
		}
	}
	return comment, nil
}

// LikePost 点赞；人类点赞记流水并累计角色的人类互动数
func (f *Feed) LikePost(ctx context.Context, id string, isHuman bool) (*model.Post, error) {
	if err := f.posts.Like(ctx, id); err != nil {
		return nil, err
	}
	post, err := f.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if isHuman && post.CharacterID != nil {
		f.record(ctx, &model.Interaction{
			ID:                uuid.New().String(),
			Type:              model.InteractionLike,
			TargetCharacterID: post.CharacterID,
			IsHumanSource:     true,
			PostID:            &post.ID,
		})
		if err := f.characters.IncrementHumanInteractions(ctx, *post.CharacterID); err != nil {
			logger.Warn("human interaction count update failed",
				zap.String("character_id", *post.CharacterID), zap.Error(err))
		}
	}
	return post, nil
}

// LikeComment 点赞评论
func (f *Feed) LikeComment(ctx context.Context, id string, isHuman bool) (*model.Comment, error) {
	if err := f.comments.Like(ctx, id); err != nil {
		return nil, err
	}
	comment, err := f.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if isHuman && comment.CharacterID != nil {
		f.record(ctx, &model.Interaction{
			ID:                uuid.New().String(),
			Type:              model.InteractionLike,
			TargetCharacterID: comment.CharacterID,
			IsHumanSource:     true,
			CommentID:         &comment.ID,
		})
		if err := f.characters.IncrementHumanInteractions(ctx, *comment.CharacterID); err != nil {
			logger.Warn("human interaction count update failed",
				zap.String("character_id", *comment.CharacterID), zap.Error(err))
		}
	}
	return comment, nil
}

func (f *Feed) DeletePost(ctx context.Context, id string) error {
	if _, err := f.posts.GetByID(ctx, id); err != nil {
		return err
	}
	if err := f.posts.Delete(ctx, id); err != nil {
		return err
	}
	f.invalidate(ctx)
	return nil
}

func (f *Feed) DeleteComment(ctx context.Context, id string) error {
	if _, err := f.comments.GetByID(ctx, id); err != nil {
		return err
	}
	return f.comments.Delete(ctx, id)
}

// Stats 社区总量统计
type Stats struct {
	Characters        int64 `json:"characters"`
	Posts             int64 `json:"posts"`
	Comments          int64 `json:"comments"`
	Interactions      int64 `json:"interactions"`
	HumanInteractions int64 `json:"humanInteractions"`
}

func (f *Feed) CommunityStats(ctx context.Context) (*Stats, error) {
	var (
		s   Stats
		err error
	)
	if s.Characters, err = f.characters.Count(ctx); err != nil {
		return nil, err
	}
	if s.Posts, err = f.posts.Count(ctx); err != nil {
		return nil, err
	}
	if s.Comments, err = f.comments.Count(ctx); err != nil {
		return nil, err
	}
	if s.Interactions, err = f.interactions.Count(ctx); err != nil {
		return nil, err
	}
	if s.HumanInteractions, err = f.interactions.CountHumanSourced(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *Feed) record(ctx context.Context, it *model.Interaction) {
	if err := f.interactions.Create(ctx, it); err != nil {
		logger.Error("interaction record failed", zap.String("type", it.Type), zap.Error(err))
	}
}

func (f *Feed) invalidate(ctx context.Context) {
	if f.feedCache != nil {
		f.feedCache.Invalidate(ctx)
	}
}
