package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/ai-community/internal/model"
	"github.com/d60-Lab/ai-community/internal/repository"
	"github.com/d60-Lab/ai-community/pkg/logger"
)

// 手动触发的动作类别
const (
	TriggerPosts        = "posts"
	TriggerInteractions = "interactions"
	TriggerAll          = "all"
)

// AutomationConfig 定时器周期与手动触发批量上限。
// 发帖扫描周期只是缺省值，settings 的 PublishInterval 优先
type AutomationConfig struct {
	PostScanInterval      time.Duration
	InteractionInterval   time.Duration
	HumanEventInterval    time.Duration
	MaxPostsPerTrigger    int
	MaxCommentsPerTrigger int
}

func (c AutomationConfig) withDefaults() AutomationConfig {
	out := c
	if out.PostScanInterval <= 0 {
		out.PostScanInterval = time.Minute
	}
	if out.InteractionInterval <= 0 {
		out.InteractionInterval = 2 * time.Minute
	}
	if out.HumanEventInterval <= 0 {
		out.HumanEventInterval = time.Minute
	}
	if out.MaxPostsPerTrigger <= 0 {
		out.MaxPostsPerTrigger = 3
	}
	if out.MaxCommentsPerTrigger <= 0 {
		out.MaxCommentsPerTrigger = 5
	}
	return out
}

// TriggerResult 手动触发摘要，部分失败仍返回已产出内容
type TriggerResult struct {
	Posts    []*model.Post    `json:"posts,omitempty"`
	Comments []*model.Comment `json:"comments,omitempty"`
}

// Automation 顶层调度器：三类独立定时器（发帖扫描 / 角色互评 / 人类事件），
// 配置变更同步推入，启停幂等。生成动作全部经由 Generator → 限流通道。
type Automation struct {
	cfg         AutomationConfig
	settings    repository.SettingRepository
	characters  repository.CharacterRepository
	posts       repository.PostRepository
	generator   *Generator
	humanEvents *HumanEvents
	schedule    *Schedule

	rngMu sync.Mutex
	rng   Rand

	mu              sync.Mutex
	current         model.AutomationSetting
	postStop        chan struct{}
	interactionStop chan struct{}
	humanStop       chan struct{}

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

func NewAutomation(
	cfg AutomationConfig,
	settings repository.SettingRepository,
	characters repository.CharacterRepository,
	posts repository.PostRepository,
	generator *Generator,
	humanEvents *HumanEvents,
	schedule *Schedule,
	rng Rand,
) *Automation {
	return &Automation{
		cfg:         cfg.withDefaults(),
		settings:    settings,
		characters:  characters,
		posts:       posts,
		generator:   generator,
		humanEvents: humanEvents,
		schedule:    schedule,
		rng:         rng,
		inflight:    make(map[string]struct{}),
	}
}

// Initialize 读配置并按开关启动定时器；人类事件处理始终运行
func (a *Automation) Initialize(ctx context.Context) error {
	s, err := a.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load automation settings: %w", err)
	}

	a.mu.Lock()
	a.current = *s
	if s.AutoPublishEnabled {
		a.startPostScanLocked()
	}
	if s.AIInteractionEnabled {
		a.startInteractionScanLocked()
	}
	a.startHumanLoopLocked()
	a.mu.Unlock()

	logger.Info("automation initialized",
		zap.Bool("auto_publish", s.AutoPublishEnabled),
		zap.Bool("ai_interaction", s.AIInteractionEnabled))
	return nil
}

// Shutdown 停止全部定时器；已入队的生成请求允许完成
func (a *Automation) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked(&a.postStop)
	a.stopLocked(&a.interactionStop)
	a.stopLocked(&a.humanStop)
	logger.Info("automation stopped")
}

// Settings 当前配置
func (a *Automation) Settings(ctx context.Context) (*model.AutomationSetting, error) {
	return a.settings.Get(ctx)
}

// UpdateSettings 保存并同步应用：开关变化启停对应定时器，
// 周期相关项变化时重启（停+启），均为幂等操作
func (a *Automation) UpdateSettings(ctx context.Context, s *model.AutomationSetting) (*model.AutomationSetting, error) {
	if err := a.settings.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save automation settings: %w", err)
	}

	a.mu.Lock()
	prev := a.current
	a.current = *s

	if prev.AutoPublishEnabled != s.AutoPublishEnabled {
		if s.AutoPublishEnabled {
			a.startPostScanLocked()
		} else {
			a.stopLocked(&a.postStop)
		}
	} else if s.AutoPublishEnabled && prev.PublishInterval != s.PublishInterval {
		a.stopLocked(&a.postStop)
		a.startPostScanLocked()
	}

	if prev.AIInteractionEnabled != s.AIInteractionEnabled {
		if s.AIInteractionEnabled {
			a.startInteractionScanLocked()
		} else {
			a.stopLocked(&a.interactionStop)
		}
	}
	a.mu.Unlock()

	logger.Info("automation settings updated",
		zap.Bool("auto_publish", s.AutoPublishEnabled),
		zap.Bool("ai_interaction", s.AIInteractionEnabled))
	return s, nil
}

// ResetSettings 重建默认配置并应用
func (a *Automation) ResetSettings(ctx context.Context) (*model.AutomationSetting, error) {
	def, err := a.settings.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset automation settings: %w", err)
	}
	return a.UpdateSettings(ctx, def)
}

// Trigger 手动触发一轮小批量生成；批量上限独立于周期路径，避免突发过载
func (a *Automation) Trigger(ctx context.Context, kind string) (*TriggerResult, error) {
	s, err := a.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load automation settings: %w", err)
	}

	postLimit := min(a.cfg.MaxPostsPerTrigger, s.MaxPostsPerInterval)
	commentLimit := min(a.cfg.MaxCommentsPerTrigger, s.MaxCommentsPerInterval)

	result := &TriggerResult{}
	switch kind {
	case TriggerPosts:
		result.Posts, _ = a.generator.GenerateBatchPosts(ctx, postLimit)
	case TriggerInteractions:
		result.Comments, _ = a.generator.GenerateInteractions(ctx, commentLimit, s.InteractionProbability, a.lockedRand())
	case TriggerAll:
		result.Posts, _ = a.generator.GenerateBatchPosts(ctx, postLimit)
		result.Comments, _ = a.generator.GenerateInteractions(ctx, commentLimit, s.InteractionProbability, a.lockedRand())
	default:
		return nil, fmt.Errorf("invalid trigger kind: %q", kind)
	}
	return result, nil
}

// --- 定时器启停（调用方持有 a.mu） ---

func (a *Automation) startPostScanLocked() {
	a.stopLocked(&a.postStop)
	a.postStop = make(chan struct{})
	period := a.postScanPeriodLocked()
	go a.loop(a.postStop, period, a.postScanTick)
	logger.Info("post scan started", zap.Duration("interval", period))
}

// postScanPeriodLocked 发帖扫描周期来自运行期配置，未设置时退回部署缺省
func (a *Automation) postScanPeriodLocked() time.Duration {
	if a.current.PublishInterval > 0 {
		return a.current.PublishInterval
	}
	return a.cfg.PostScanInterval
}

func (a *Automation) startInteractionScanLocked() {
	a.stopLocked(&a.interactionStop)
	a.interactionStop = make(chan struct{})
	go a.loop(a.interactionStop, a.cfg.InteractionInterval, a.interactionTick)
	logger.Info("interaction scan started", zap.Duration("interval", a.cfg.InteractionInterval))
}

func (a *Automation) startHumanLoopLocked() {
	a.stopLocked(&a.humanStop)
	a.humanStop = make(chan struct{})
	go a.loop(a.humanStop, a.cfg.HumanEventInterval, a.humanTick)
	logger.Info("human event loop started", zap.Duration("interval", a.cfg.HumanEventInterval))
}

func (a *Automation) stopLocked(stop *chan struct{}) {
	if *stop != nil {
		close(*stop)
		*stop = nil
	}
}

func (a *Automation) loop(stop <-chan struct{}, period time.Duration, tick func(context.Context)) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			tick(context.Background())
		}
	}
}

// --- 各定时器单次 tick ---

// postScanTick 每个 tick 只为一个角色发帖（独立于限流通道的刻意节流）
func (a *Automation) postScanTick(ctx context.Context) {
	s := a.snapshot()
	if !s.AutoPublishEnabled {
		return
	}
	chars, err := a.characters.ListActive(ctx)
	if err != nil {
		logger.Error("post scan: list characters failed", zap.Error(err))
		return
	}
	pick := a.schedule.PickNext(chars, time.Now())
	if pick == nil {
		return
	}
	a.actAs(ctx, pick.ID, func(ctx context.Context) {
		if _, err := a.generator.GeneratePost(ctx, pick.ID); err != nil {
			logger.Warn("post scan: generation skipped",
				zap.String("character", pick.Name), zap.Error(err))
		}
	})
}

// interactionTick 随机挑一篇近期帖子，按概率让一个可行动角色评论
func (a *Automation) interactionTick(ctx context.Context) {
	s := a.snapshot()
	if !s.AIInteractionEnabled {
		return
	}
	if !a.chance(s.InteractionProbability) {
		return
	}
	recent, err := a.posts.ListRecent(ctx, interactionPostPool)
	if err != nil {
		logger.Error("interaction scan: list posts failed", zap.Error(err))
		return
	}
	if len(recent) == 0 {
		return
	}
	post := recent[a.pick(len(recent))]

	chars, err := a.characters.ListActive(ctx)
	if err != nil {
		logger.Error("interaction scan: list characters failed", zap.Error(err))
		return
	}
	candidates := make([]*model.Character, 0, len(chars))
	for _, ch := range chars {
		if post.CharacterID != nil && *post.CharacterID == ch.ID {
			continue
		}
		candidates = append(candidates, ch)
	}
	commenter := a.schedule.PickNext(candidates, time.Now())
	if commenter == nil {
		return
	}
	a.actAs(ctx, commenter.ID, func(ctx context.Context) {
		if _, err := a.generator.GenerateComment(ctx, commenter.ID, post.ID); err != nil {
			logger.Warn("interaction scan: generation skipped",
				zap.String("character", commenter.Name), zap.String("post_id", post.ID), zap.Error(err))
		}
	})
}

func (a *Automation) humanTick(ctx context.Context) {
	s := a.snapshot()
	if _, err := a.humanEvents.Process(ctx, s.HumanReplyProbability, a.lockedRand()); err != nil {
		logger.Error("human event processing failed", zap.Error(err))
	}
}

// actAs 同一角色同时只允许一个在途生成动作；
// 排队挂起后提交前重新校验节奏，避免两类定时器对同一角色丢更新
func (a *Automation) actAs(ctx context.Context, characterID string, fn func(context.Context)) {
	a.inflightMu.Lock()
	if _, busy := a.inflight[characterID]; busy {
		a.inflightMu.Unlock()
		return
	}
	a.inflight[characterID] = struct{}{}
	a.inflightMu.Unlock()
	defer func() {
		a.inflightMu.Lock()
		delete(a.inflight, characterID)
		a.inflightMu.Unlock()
	}()

	fresh, err := a.characters.GetByID(ctx, characterID)
	if err != nil {
		logger.Warn("action skipped: character lookup failed",
			zap.String("character_id", characterID), zap.Error(err))
		return
	}
	if !a.schedule.Eligible(fresh, time.Now()) {
		return
	}
	fn(ctx)
}

func (a *Automation) snapshot() model.AutomationSetting {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func (a *Automation) chance(p float64) bool {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.Float64() < p
}

func (a *Automation) pick(n int) int {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.Intn(n)
}

// lockedRand 返回串行化的随机源，批量生成路径在自身协程内使用
func (a *Automation) lockedRand() Rand {
	return &lockedRandSource{mu: &a.rngMu, rng: a.rng}
}

type lockedRandSource struct {
	mu  *sync.Mutex
	rng Rand
}

func (l *lockedRandSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

func (l *lockedRandSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

func (l *lockedRandSource) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rng.Shuffle(n, swap)
}
