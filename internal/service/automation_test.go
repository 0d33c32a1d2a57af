package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/ai-community/internal/model"
)

func newTestAutomation(t *testing.T, r repos, ch *stubChannel, cfg AutomationConfig) *Automation {
	t.Helper()
	g := NewGenerator(r.characters, r.posts, r.comments, r.interactions, ch)
	h := NewHumanEvents(r.interactions, r.posts, g)
	a := NewAutomation(cfg, r.settings, r.characters, r.posts, g, h, NewSchedule(time.Millisecond), &stubRand{f: 0})
	t.Cleanup(a.Shutdown)
	return a
}

func postCount(t *testing.T, r repos) int64 {
	t.Helper()
	n, err := r.posts.Count(context.Background())
	require.NoError(t, err)
	return n
}

// 开关打开后定时发帖，关闭后立即停发，重新打开恢复
func TestAutomationToggle(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	a := newTestAutomation(t, r, &stubChannel{}, AutomationConfig{
		PostScanInterval:    25 * time.Millisecond,
		InteractionInterval: time.Hour,
		HumanEventInterval:  time.Hour,
	})

	for _, id := range []string{"a", "b"} {
		ch := seedCharacter(t, r, id)
		ch.PostInterval = time.Millisecond
		require.NoError(t, r.characters.Update(ctx, ch))
	}

	require.NoError(t, a.Initialize(ctx))
	assert.Zero(t, postCount(t, r), "disabled by default")

	s, err := a.Settings(ctx)
	require.NoError(t, err)
	s.AutoPublishEnabled = true
	s.PublishInterval = 25 * time.Millisecond
	_, err = a.UpdateSettings(ctx, s)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return postCount(t, r) >= 2 },
		time.Second, 10*time.Millisecond, "expected ticks to produce posts")

	s.AutoPublishEnabled = false
	_, err = a.UpdateSettings(ctx, s)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond) // 放过在途 tick
	frozen := postCount(t, r)
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, frozen, postCount(t, r), "posts kept flowing after disable")

	s.AutoPublishEnabled = true
	_, err = a.UpdateSettings(ctx, s)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return postCount(t, r) > frozen },
		time.Second, 10*time.Millisecond, "expected posting to resume")
}

// 重复应用同一配置不会翻倍定时器
func TestAutomationUpdateIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	a := newTestAutomation(t, r, &stubChannel{}, AutomationConfig{
		PostScanInterval:    40 * time.Millisecond,
		InteractionInterval: time.Hour,
		HumanEventInterval:  time.Hour,
	})

	ch := seedCharacter(t, r, "solo")
	ch.PostInterval = time.Hour
	require.NoError(t, r.characters.Update(ctx, ch))

	require.NoError(t, a.Initialize(ctx))
	s, err := a.Settings(ctx)
	require.NoError(t, err)
	s.AutoPublishEnabled = true
	s.PublishInterval = 40 * time.Millisecond
	for i := 0; i < 3; i++ {
		_, err = a.UpdateSettings(ctx, s)
		require.NoError(t, err)
	}

	// PostInterval 一小时：首帖之后不应再有
	require.Eventually(t, func() bool { return postCount(t, r) == 1 },
		time.Second, 10*time.Millisecond)
	time.Sleep(120 * time.Millisecond)
	assert.EqualValues(t, 1, postCount(t, r))
}

func TestAutomationTrigger(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	a := newTestAutomation(t, r, &stubChannel{}, AutomationConfig{
		MaxPostsPerTrigger:    2,
		MaxCommentsPerTrigger: 5,
	})

	seedCharacter(t, r, "a")
	seedCharacter(t, r, "b")
	seedCharacter(t, r, "c")

	t.Run("posts capped by config", func(t *testing.T) {
		res, err := a.Trigger(ctx, TriggerPosts)
		require.NoError(t, err)
		assert.Len(t, res.Posts, 2)
	})

	t.Run("interactions produce comments", func(t *testing.T) {
		res, err := a.Trigger(ctx, TriggerInteractions)
		require.NoError(t, err)
		require.NotEmpty(t, res.Comments)
		assert.LessOrEqual(t, len(res.Comments), 5)
		for _, c := range res.Comments {
			require.NotNil(t, c.CharacterID)
		}
	})

	t.Run("invalid kind", func(t *testing.T) {
		_, err := a.Trigger(ctx, "everything")
		assert.Error(t, err)
	})
}

// 发帖扫描周期取自 settings 的 PublishInterval，变更后立即生效
func TestAutomationPublishIntervalTakesEffect(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	a := newTestAutomation(t, r, &stubChannel{}, AutomationConfig{
		PostScanInterval:    20 * time.Millisecond, // 缺省值，应被 settings 覆盖
		InteractionInterval: time.Hour,
		HumanEventInterval:  time.Hour,
	})

	for _, id := range []string{"a", "b"} {
		ch := seedCharacter(t, r, id)
		ch.PostInterval = time.Millisecond
		require.NoError(t, r.characters.Update(ctx, ch))
	}

	require.NoError(t, a.Initialize(ctx))
	s, err := a.Settings(ctx)
	require.NoError(t, err)
	s.AutoPublishEnabled = true
	s.PublishInterval = 30 * time.Minute
	_, err = a.UpdateSettings(ctx, s)
	require.NoError(t, err)

	// 周期半小时：部署缺省若仍然生效这里会出帖
	time.Sleep(120 * time.Millisecond)
	assert.Zero(t, postCount(t, r), "post scan ran on the config default instead of the settings interval")

	s.PublishInterval = 20 * time.Millisecond
	_, err = a.UpdateSettings(ctx, s)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return postCount(t, r) >= 1 },
		time.Second, 10*time.Millisecond, "shortened interval must take effect after restart")
}

// 被选中的角色查不到或已不满足节奏时跳过动作
func TestAutomationActAsGuards(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	a := newTestAutomation(t, r, &stubChannel{}, AutomationConfig{
		PostScanInterval:    time.Hour,
		InteractionInterval: time.Hour,
		HumanEventInterval:  time.Hour,
	})

	t.Run("missing character", func(t *testing.T) {
		called := false
		a.actAs(ctx, "ghost", func(context.Context) { called = true })
		assert.False(t, called)
	})

	t.Run("became ineligible", func(t *testing.T) {
		ch := seedCharacter(t, r, "busy")
		now := time.Now()
		ch.LastPosted = &now
		require.NoError(t, r.characters.Update(ctx, ch))

		called := false
		a.actAs(ctx, ch.ID, func(context.Context) { called = true })
		assert.False(t, called)
	})
}

func TestAutomationResetSettings(t *testing.T) {
	ctx := context.Background()
	r := newRepos(setupServiceDB(t))
	a := newTestAutomation(t, r, &stubChannel{}, AutomationConfig{
		PostScanInterval:    time.Hour,
		InteractionInterval: time.Hour,
		HumanEventInterval:  time.Hour,
	})
	require.NoError(t, a.Initialize(ctx))

	s, err := a.Settings(ctx)
	require.NoError(t, err)
	s.InteractionProbability = 0.9
	s.MaxPostsPerInterval = 1
	_, err = a.UpdateSettings(ctx, s)
	require.NoError(t, err)

	got, err := a.ResetSettings(ctx)
	require.NoError(t, err)
	def := model.DefaultAutomationSetting()
	assert.Equal(t, def.InteractionProbability, got.InteractionProbability)
	assert.Equal(t, def.MaxPostsPerInterval, got.MaxPostsPerInterval)
	assert.False(t, got.AutoPublishEnabled)
}
