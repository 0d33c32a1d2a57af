package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/ai-community/internal/llm"
	"github.com/d60-Lab/ai-community/internal/model"
	"github.com/d60-Lab/ai-community/internal/repository"
	"github.com/d60-Lab/ai-community/pkg/logger"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrPostNotFound      = errors.New("post not found")
	ErrCommentNotFound   = errors.New("comment not found")
	// ErrOwnPost 角色不评论自己的帖子
	ErrOwnPost = errors.New("character cannot comment on own post")
)

const (
	recentPostContext   = 5
	humanEventContext   = 3
	commentContext      = 5
	interactionPostPool = 10
)

// ContentChannel 生成调用的唯一出口（由 llm.Channel 实现）
type ContentChannel interface {
	Submit(ctx context.Context, req llm.Request) (string, error)
}

// Rand 可注入的随机源，测试用固定种子
type Rand interface {
	Float64() float64
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Generator 生成流水线：取上下文 → 渲染 → 过限流通道 → 落库 + 互动流水
type Generator struct {
	characters   repository.CharacterRepository
	posts        repository.PostRepository
	comments     repository.CommentRepository
	interactions repository.InteractionRepository
	channel      ContentChannel
}

func NewGenerator(
	characters repository.CharacterRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	interactions repository.InteractionRepository,
	channel ContentChannel,
) *Generator {
	return &Generator{
		characters:   characters,
		posts:        posts,
		comments:     comments,
		interactions: interactions,
		channel:      channel,
	}
}

// GeneratePost 为角色生成一条帖子
func (g *Generator) GeneratePost(ctx context.Context, characterID string) (*model.Post, error) {
	ch, err := g.characters.GetByID(ctx, characterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}

	recent, err := g.posts.ListRecent(ctx, recentPostContext)
	if err != nil {
		return nil, err
	}
	humanEvents, err := g.interactions.ListHumanTargeting(ctx, characterID, humanEventContext)
	if err != nil {
		return nil, err
	}

	content, err := g.channel.Submit(ctx, llm.RenderPost(ch, recent, humanEvents))
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:            uuid.New().String(),
		CharacterID:   &ch.ID,
		Content:       content,
		HumanInspired: len(humanEvents) > 0,
	}
	if err := g.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	g.recordInteraction(ctx, &model.Interaction{
		ID:                uuid.New().String(),
		Type:              model.InteractionPost,
		SourceCharacterID: &ch.ID,
		PostID:            &post.ID,
		Content:           content,
	})
	g.commitAction(ctx, ch.ID)

	logger.Info("generated post",
		zap.String("character", ch.Name), zap.String("post_id", post.ID),
		zap.Bool("human_inspired", post.HumanInspired))
	return post, nil
}

// GenerateComment 为角色生成对某帖的评论，不允许评论自己的帖子
func (g *Generator) GenerateComment(ctx context.Context, characterID, postID string) (*model.Comment, error) {
	ch, err := g.characters.GetByID(ctx, characterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}
	post, err := g.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if post.CharacterID != nil && *post.CharacterID == characterID {
		return nil, ErrOwnPost
	}

	existing, err := g.comments.ListTopLevelByPost(ctx, postID, commentContext)
	if err != nil {
		return nil, err
	}

	content, err := g.channel.Submit(ctx, llm.RenderComment(ch, post, existing))
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:          uuid.New().String(),
		PostID:      postID,
		CharacterID: &ch.ID,
		Content:     content,
	}
	if err := g.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	g.recordInteraction(ctx, &model.Interaction{
		ID:                uuid.New().String(),
		Type:              model.InteractionComment,
		SourceCharacterID: &ch.ID,
		TargetCharacterID: post.CharacterID,
		PostID:            &post.ID,
		CommentID:         &comment.ID,
		Content:           content,
	})
	g.commitAction(ctx, ch.ID)

	logger.Info("generated comment",
		zap.String("character", ch.Name), zap.String("post_id", postID))
	return comment, nil
}

// GenerateReply 为角色生成对某评论的回复。
// 互动目标是被回复评论的作者；人类评论没有作者，落到帖子作者。
func (g *Generator) GenerateReply(ctx context.Context, characterID, commentID string) (*model.Comment, error) {
	ch, err := g.characters.GetByID(ctx, characterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}
	comment, err := g.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	post, err := g.posts.GetByID(ctx, comment.PostID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	content, err := g.channel.Submit(ctx, llm.RenderReply(ch, comment, post))
	if err != nil {
		return nil, err
	}

	reply := &model.Comment{
		ID:              uuid.New().String(),
		PostID:          comment.PostID,
		CharacterID:     &ch.ID,
		Content:         content,
		ParentCommentID: &comment.ID,
	}
	if err := g.comments.Create(ctx, reply); err != nil {
		return nil, err
	}

	target := comment.CharacterID
	if comment.IsHuman {
		target = post.CharacterID
	}
	g.recordInteraction(ctx, &model.Interaction{
		ID:                uuid.New().String(),
		Type:              model.InteractionReply,
		SourceCharacterID: &ch.ID,
		TargetCharacterID: target,
		PostID:            &comment.PostID,
		CommentID:         &reply.ID,
		Content:           content,
	})
	g.commitAction(ctx, ch.ID)

	logger.Info("generated reply",
		zap.String("character", ch.Name), zap.String("comment_id", commentID))
	return reply, nil
}

// GenerateBatchPosts 手动触发用的小批量发帖：最不活跃的角色优先，逐个串行
func (g *Generator) GenerateBatchPosts(ctx context.Context, limit int) ([]*model.Post, error) {
	chars, err := g.characters.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(chars, func(i, j int) bool {
		if chars[i].InteractionCount == chars[j].InteractionCount {
			return chars[i].ID < chars[j].ID
		}
		return chars[i].InteractionCount < chars[j].InteractionCount
	})
	if limit > 0 && len(chars) > limit {
		chars = chars[:limit]
	}

	posts := make([]*model.Post, 0, len(chars))
	for _, ch := range chars {
		post, err := g.GeneratePost(ctx, ch.ID)
		if err != nil {
			logger.Warn("batch post generation skipped",
				zap.String("character", ch.Name), zap.Error(err))
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// GenerateInteractions 手动触发用的小批量评论：最近帖子上随机角色按概率评论
func (g *Generator) GenerateInteractions(ctx context.Context, limit int, probability float64, rng Rand) ([]*model.Comment, error) {
	recent, err := g.posts.ListRecent(ctx, interactionPostPool)
	if err != nil {
		return nil, err
	}
	chars, err := g.characters.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	comments := make([]*model.Comment, 0, limit)
	for _, post := range recent {
		if len(comments) >= limit {
			break
		}
		candidates := make([]*model.Character, 0, len(chars))
		for _, ch := range chars {
			if post.CharacterID != nil && *post.CharacterID == ch.ID {
				continue
			}
			candidates = append(candidates, ch)
		}
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		commenters := rng.Intn(3) + 1
		if commenters > len(candidates) {
			commenters = len(candidates)
		}
		for _, ch := range candidates[:commenters] {
			if len(comments) >= limit {
				break
			}
			if rng.Float64() >= probability {
				continue
			}
			comment, err := g.GenerateComment(ctx, ch.ID, post.ID)
			if err != nil {
				logger.Warn("batch comment generation skipped",
					zap.String("character", ch.Name), zap.String("post_id", post.ID), zap.Error(err))
				continue
			}
			comments = append(comments, comment)
		}
	}
	return comments, nil
}

// recordInteraction 流水写失败不回滚内容，只记日志（已知的一致性窗口）
func (g *Generator) recordInteraction(ctx context.Context, it *model.Interaction) {
	if err := g.interactions.Create(ctx, it); err != nil {
		logger.Error("interaction record failed",
			zap.String("type", it.Type), zap.Error(err))
	}
}

func (g *Generator) commitAction(ctx context.Context, characterID string) {
	if err := g.characters.RecordAction(ctx, characterID, time.Now()); err != nil {
		logger.Error("record action failed",
			zap.String("character_id", characterID), zap.Error(err))
	}
}
