package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/ai-community/internal/model"
	"github.com/d60-Lab/ai-community/internal/repository"
)

// 新角色发帖间隔随机落在 3-8 分钟之间，错开各自的节奏
const (
	minPostInterval    = 3 * time.Minute
	postIntervalJitter = 5 * time.Minute
)

// CharacterInput 创建/更新角色的字段
type CharacterInput struct {
	Name          string
	Avatar        string
	Personality   string
	Profession    string
	Interests     []string
	Goal          string
	MemoryContext string
}

// Characters 角色管理。rng 由内部互斥锁串行化，创建请求可以并发进来
type Characters struct {
	repo repository.CharacterRepository

	rngMu sync.Mutex
	rng   Rand
}

func NewCharacters(repo repository.CharacterRepository, rng Rand) *Characters {
	return &Characters{repo: repo, rng: rng}
}

func (c *Characters) randomInterval() time.Duration {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return minPostInterval + time.Duration(c.rng.Intn(int(postIntervalJitter)))
}

func (c *Characters) Create(ctx context.Context, in CharacterInput) (*model.Character, error) {
	avatar := in.Avatar
	if avatar == "" {
		avatar = "🤖"
	}
	ch := &model.Character{
		ID:            uuid.New().String(),
		Name:          in.Name,
		Avatar:        avatar,
		Personality:   in.Personality,
		Profession:    in.Profession,
		Interests:     in.Interests,
		Goal:          in.Goal,
		MemoryContext: in.MemoryContext,
		Active:        true,
		PostInterval:  c.randomInterval(),
	}
	if err := c.repo.Create(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

func (c *Characters) Get(ctx context.Context, id string) (*model.Character, error) {
	return c.repo.GetByID(ctx, id)
}

func (c *Characters) List(ctx context.Context, limit int) ([]*model.Character, error) {
	return c.repo.List(ctx, limit)
}

func (c *Characters) Update(ctx context.Context, id string, in CharacterInput) (*model.Character, error) {
	ch, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		ch.Name = in.Name
	}
	if in.Avatar != "" {
		ch.Avatar = in.Avatar
	}
	if in.Personality != "" {
		ch.Personality = in.Personality
	}
	if in.Profession != "" {
		ch.Profession = in.Profession
	}
	if in.Interests != nil {
		ch.Interests = in.Interests
	}
	if in.Goal != "" {
		ch.Goal = in.Goal
	}
	if in.MemoryContext != "" {
		ch.MemoryContext = in.MemoryContext
	}
	if err := c.repo.Update(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// SetActive 停用的角色不再参与任何自动生成
func (c *Characters) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := c.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return c.repo.SetActive(ctx, id, active)
}
