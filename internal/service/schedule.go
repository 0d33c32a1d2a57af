package service

import (
	"time"

	"github.com/d60-Lab/ai-community/internal/model"
)

// Schedule 角色发帖节奏判定，纯逻辑无定时器
type Schedule struct {
	// Floor 全局最小间隔，防止 PostInterval 被误配成 0 后刷屏
	Floor time.Duration
}

func NewSchedule(floor time.Duration) *Schedule {
	if floor <= 0 {
		floor = 3 * time.Minute
	}
	return &Schedule{Floor: floor}
}

// Eligible 是否到达可发帖时间：active 且（从未发过 或 距上次 ≥ max(自身间隔, floor)）
func (s *Schedule) Eligible(ch *model.Character, now time.Time) bool {
	if ch == nil || !ch.Active {
		return false
	}
	if ch.LastPosted == nil {
		return true
	}
	gap := ch.PostInterval
	if gap < s.Floor {
		gap = s.Floor
	}
	return now.Sub(*ch.LastPosted) >= gap
}

// PickNext 在满足条件的角色中取最久未行动者；从未发帖排最前，平局按 ID 最小
func (s *Schedule) PickNext(chs []*model.Character, now time.Time) *model.Character {
	var best *model.Character
	for _, ch := range chs {
		if !s.Eligible(ch, now) {
			continue
		}
		if best == nil || olderThan(ch, best) {
			best = ch
		}
	}
	return best
}

func olderThan(a, b *model.Character) bool {
	switch {
	case a.LastPosted == nil && b.LastPosted == nil:
		return a.ID < b.ID
	case a.LastPosted == nil:
		return true
	case b.LastPosted == nil:
		return false
	case a.LastPosted.Equal(*b.LastPosted):
		return a.ID < b.ID
	default:
		return a.LastPosted.Before(*b.LastPosted)
	}
}
