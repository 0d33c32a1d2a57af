package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/d60-Lab/ai-community/internal/model"
	"github.com/d60-Lab/ai-community/internal/repository"
	"github.com/d60-Lab/ai-community/pkg/logger"
)

const humanEventBatch = 5

// HumanEvents 消费未处理的人类评论/回复，按概率让帖子作者生成回复。
// 先条件置位 processed 再尝试生成，保证同一事件至多一次应答尝试。
type HumanEvents struct {
	interactions repository.InteractionRepository
	posts        repository.PostRepository
	generator    *Generator
}

func NewHumanEvents(
	interactions repository.InteractionRepository,
	posts repository.PostRepository,
	generator *Generator,
) *HumanEvents {
	return &HumanEvents{interactions: interactions, posts: posts, generator: generator}
}

// Process 处理一批（最新优先），返回生成的回复
func (h *HumanEvents) Process(ctx context.Context, replyProbability float64, rng Rand) ([]*model.Comment, error) {
	events, err := h.interactions.ListUnprocessedHuman(ctx, humanEventBatch)
	if err != nil {
		return nil, err
	}

	replies := make([]*model.Comment, 0, len(events))
	for _, ev := range events {
		claimed, err := h.interactions.MarkProcessed(ctx, ev.ID)
		if err != nil {
			logger.Error("mark processed failed", zap.String("event_id", ev.ID), zap.Error(err))
			continue
		}
		if !claimed {
			// 其它处理协程已领取
			continue
		}

		if rng.Float64() >= replyProbability {
			continue
		}
		reply, err := h.respond(ctx, ev)
		if err != nil {
			logger.Warn("human event reply skipped",
				zap.String("event_id", ev.ID), zap.Error(err))
			continue
		}
		if reply != nil {
			replies = append(replies, reply)
		}
	}
	return replies, nil
}

// respond 应答人：原帖作者。缺帖、缺评论或帖子为人类所发则跳过。
func (h *HumanEvents) respond(ctx context.Context, ev *model.Interaction) (*model.Comment, error) {
	if ev.PostID == nil || ev.CommentID == nil {
		return nil, nil
	}
	post, err := h.posts.GetByID(ctx, *ev.PostID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if post.CharacterID == nil {
		return nil, nil
	}
	return h.generator.GenerateReply(ctx, *post.CharacterID, *ev.CommentID)
}
