package llm

import "context"

// Request 一次生成调用的入参
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Provider 外部生成服务，调用可能失败，失败只影响单次请求
type Provider interface {
	Render(ctx context.Context, req Request) (string, error)
}
