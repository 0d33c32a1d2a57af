package service

import (
	"context"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/ai-community/internal/llm"
	"github.com/d60-Lab/ai-community/internal/model"
	"github.com/d60-Lab/ai-community/internal/repository"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Character{}, &model.Post{}, &model.Comment{},
		&model.Interaction{}, &model.AutomationSetting{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type repos struct {
	characters   repository.CharacterRepository
	posts        repository.PostRepository
	comments     repository.CommentRepository
	interactions repository.InteractionRepository
	settings     repository.SettingRepository
}

func newRepos(db *gorm.DB) repos {
	return repos{
		characters:   repository.NewCharacterRepository(db),
		posts:        repository.NewPostRepository(db),
		comments:     repository.NewCommentRepository(db),
		interactions: repository.NewInteractionRepository(db),
		settings:     repository.NewSettingRepository(db),
	}
}

// stubChannel 按序返回脚本化结果，并记录收到的请求
type stubChannel struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []llm.Request
}

func (s *stubChannel) Submit(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "generated text", nil
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

func (s *stubChannel) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// stubRand 固定输出的随机源
type stubRand struct {
	f float64
	n int
}

func (r *stubRand) Float64() float64 { return r.f }

func (r *stubRand) Intn(n int) int {
	if r.n < n {
		return r.n
	}
	return 0
}

func (r *stubRand) Shuffle(int, func(i, j int)) {}
