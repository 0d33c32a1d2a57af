package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/ai-community/pkg/logger"
)

var ErrChannelClosed = errors.New("llm channel closed")

// ChannelConfig 限流参数
type ChannelConfig struct {
	MinGap       time.Duration // 两次派发之间的最小间隔
	MaxPerWindow int           // 窗口内配额
	Window       time.Duration // 配额重置周期
	RetryDelay   time.Duration // 配额耗尽后的重试等待
	QueueSize    int
}

func (c ChannelConfig) withDefaults() ChannelConfig {
	out := c
	if out.MinGap <= 0 {
		out.MinGap = 3 * time.Second
	}
	if out.MaxPerWindow <= 0 {
		out.MaxPerWindow = 20
	}
	if out.Window <= 0 {
		out.Window = time.Minute
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = 5 * time.Second
	}
	if out.QueueSize <= 0 {
		out.QueueSize = 256
	}
	return out
}

type pendingRequest struct {
	ctx  context.Context
	req  Request
	done chan callResult
}

type callResult struct {
	text string
	err  error
}

// Channel 所有生成调用的唯一串行化点：FIFO 排队，单请求在途，
// 最小派发间隔 + 窗口配额。其余组件不得绕过它直接调 Provider。
type Channel struct {
	provider Provider
	cfg      ChannelConfig
	queue    chan *pendingRequest
	limiter  *rate.Limiter

	mu             sync.Mutex
	sentThisWindow int

	// stopMu 串行化入队与停机：stopped 置位后不可能再有新请求入队，
	// 工作协程的 drain 必然看到全部存量请求
	stopMu  sync.RWMutex
	stopped bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewChannel(provider Provider, cfg ChannelConfig) *Channel {
	cfg = cfg.withDefaults()
	return &Channel{
		provider: provider,
		cfg:      cfg,
		queue:    make(chan *pendingRequest, cfg.QueueSize),
		limiter:  rate.NewLimiter(rate.Every(cfg.MinGap), 1),
		stopCh:   make(chan struct{}),
	}
}

// Start 启动工作协程与配额重置定时器，返回停止函数
func (c *Channel) Start() func(context.Context) error {
	c.wg.Add(2)
	go c.loop()
	go c.resetLoop()
	return func(ctx context.Context) error {
		c.stopOnce.Do(func() {
			c.stopMu.Lock()
			c.stopped = true
			c.stopMu.Unlock()
			close(c.stopCh)
		})
		done := make(chan struct{})
		go func() { c.wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Submit 排队并阻塞等待结果；调用方错误互不影响。
// 入队在 stopMu 读锁内完成，停机后入队的请求不可能漏过 drain
func (c *Channel) Submit(ctx context.Context, req Request) (string, error) {
	p := &pendingRequest{ctx: ctx, req: req, done: make(chan callResult, 1)}

	c.stopMu.RLock()
	if c.stopped {
		c.stopMu.RUnlock()
		return "", ErrChannelClosed
	}
	select {
	case <-ctx.Done():
		c.stopMu.RUnlock()
		return "", ctx.Err()
	case c.queue <- p:
		c.stopMu.RUnlock()
	}

	select {
	case r := <-p.done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Channel) loop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			c.drain()
			return
		case p := <-c.queue:
			c.dispatch(p)
		}
	}
}

// dispatch 处理单个请求：配额→间隔→派发，当前请求完成前不取下一个
func (c *Channel) dispatch(p *pendingRequest) {
	for !c.tryAcquireQuota() {
		logger.Warn("llm quota exhausted, backing off",
			zap.Duration("retry_delay", c.cfg.RetryDelay))
		select {
		case <-c.stopCh:
			p.done <- callResult{err: ErrChannelClosed}
			return
		case <-p.ctx.Done():
			p.done <- callResult{err: p.ctx.Err()}
			return
		case <-time.After(c.cfg.RetryDelay):
		}
	}

	if err := c.limiter.Wait(p.ctx); err != nil {
		c.releaseQuota()
		p.done <- callResult{err: err}
		return
	}

	start := time.Now()
	text, err := c.provider.Render(p.ctx, p.req)
	if err != nil {
		logger.Warn("llm request failed",
			zap.Error(err), zap.Duration("elapsed", time.Since(start)))
	} else {
		logger.Debug("llm request done", zap.Duration("elapsed", time.Since(start)))
	}
	p.done <- callResult{text: text, err: err}
}

func (c *Channel) tryAcquireQuota() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sentThisWindow >= c.cfg.MaxPerWindow {
		return false
	}
	c.sentThisWindow++
	return true
}

func (c *Channel) releaseQuota() {
	c.mu.Lock()
	if c.sentThisWindow > 0 {
		c.sentThisWindow--
	}
	c.mu.Unlock()
}

// resetLoop 固定周期清零窗口计数
func (c *Channel) resetLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.sentThisWindow = 0
			c.mu.Unlock()
		}
	}
}

// drain 停机后拒绝尚未派发的请求
func (c *Channel) drain() {
	for {
		select {
		case p := <-c.queue:
			p.done <- callResult{err: ErrChannelClosed}
		default:
			return
		}
	}
}

// QueueLen 当前排队长度（采样值）
func (c *Channel) QueueLen() int { return len(c.queue) }
