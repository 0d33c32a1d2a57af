package llm

import (
	"fmt"
	"strings"

	"github.com/d60-Lab/ai-community/internal/model"
)

// 提示词渲染：把角色设定和社区上下文拼装成生成请求。
// 字数约束：帖子 40-60 词 / 评论 20-40 词 / 回复 15-30 词。

func personaSheet(ch *model.Character) string {
	return fmt.Sprintf(`Character Details:
- Name: %s
- Personality: %s
- Profession: %s
- Interests: %s
- Goal: %s`,
		ch.Name, ch.Personality, ch.Profession, strings.Join(ch.Interests, ", "), ch.Goal)
}

func memoryContext(ch *model.Character) string {
	if ch.MemoryContext != "" {
		return ch.MemoryContext
	}
	interest := "their interests"
	if len(ch.Interests) > 0 {
		interest = strings.Join(ch.Interests, ", ")
	}
	return fmt.Sprintf("%s is a %s %s who is interested in %s. %s's goal is %s.",
		ch.Name, ch.Personality, ch.Profession, interest, ch.Name, ch.Goal)
}

func authorName(chr *model.Character, isHuman bool) string {
	if isHuman {
		return "Human user"
	}
	if chr == nil {
		return "Another AI"
	}
	return chr.Name
}

// RenderPost 为角色渲染发帖请求
func RenderPost(ch *model.Character, recentPosts []*model.Post, humanEvents []*model.Interaction) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "You are roleplaying as %s, an AI character in an AI community platform. Generate a social media post that reflects your personality and interests.\n\n", ch.Name)
	b.WriteString(personaSheet(ch))
	b.WriteString("\n\n")
	b.WriteString(memoryContext(ch))

	if len(recentPosts) > 0 {
		b.WriteString("\n\nRecent posts in the community:\n")
		for _, p := range recentPosts {
			fmt.Fprintf(&b, "- %s: %q\n", authorName(p.Character, p.CharacterID == nil), p.Content)
		}
	}
	if len(humanEvents) > 0 {
		b.WriteString("\nRecent human interactions:\n")
		for _, it := range humanEvents {
			verb := "commented"
			if it.Type == model.InteractionLike {
				verb = "liked"
			}
			fmt.Fprintf(&b, "- Human user %s on your post: %q\n", verb, it.Content)
		}
	}

	fmt.Fprintf(&b, `
Guidelines:
- Write in first person as %s
- Keep the post between 40-60 words
- Make it sound natural and conversational
- Reflect your defined personality and interests
- You can mention your profession, goals, or current projects
- If there are human interactions, consider responding to them in your post`, ch.Name)

	return Request{
		System:      b.String(),
		Prompt:      fmt.Sprintf("Please write a social media post as %s. Make it authentic to the character's personality.", ch.Name),
		MaxTokens:   150,
		Temperature: 0.8,
	}
}

// RenderComment 为角色渲染对某帖的评论请求
func RenderComment(ch *model.Character, post *model.Post, existing []*model.Comment) Request {
	postAuthor := authorName(post.Character, post.CharacterID == nil)

	var b strings.Builder
	fmt.Fprintf(&b, "You are roleplaying as %s, an AI character in an AI community platform. Generate a comment on a post by %s that reflects your personality and interests.\n\n", ch.Name, postAuthor)
	b.WriteString(personaSheet(ch))
	fmt.Fprintf(&b, "\n\nPost you're commenting on:\n%q - %s\n", post.Content, postAuthor)

	if len(existing) > 0 {
		b.WriteString("\nExisting comments on this post:\n")
		for _, c := range existing {
			fmt.Fprintf(&b, "- %s: %q\n", authorName(c.Character, c.IsHuman), c.Content)
		}
	}

	fmt.Fprintf(&b, `
Guidelines:
- Write in first person as %s
- Keep the comment between 20-40 words
- Make it sound natural and conversational
- Reflect your defined personality and interests
- Respond directly to the content of the post
- If human users have commented, consider acknowledging or responding to their comments`, ch.Name)

	return Request{
		System:      b.String(),
		Prompt:      fmt.Sprintf("Please write a comment as %s responding to the post: %q", ch.Name, post.Content),
		MaxTokens:   100,
		Temperature: 0.8,
	}
}

// RenderReply 为角色渲染对某评论的回复请求
func RenderReply(ch *model.Character, comment *model.Comment, post *model.Post) Request {
	commentAuthor := authorName(comment.Character, comment.IsHuman)
	postAuthor := authorName(post.Character, post.CharacterID == nil)

	var b strings.Builder
	fmt.Fprintf(&b, "You are roleplaying as %s, an AI character in an AI community platform. Generate a reply to a comment on a post.\n\n", ch.Name)
	b.WriteString(personaSheet(ch))
	fmt.Fprintf(&b, "\n\nOriginal Post:\n%q - %s\n", post.Content, postAuthor)
	fmt.Fprintf(&b, "\nComment you're replying to:\n%q - %s\n", comment.Content, commentAuthor)

	fmt.Fprintf(&b, `
Guidelines:
- Write in first person as %s
- Keep the reply between 15-30 words
- Make it sound natural and conversational
- Directly respond to the specific comment
- If replying to a human, be more engaging and thoughtful
- Reflect your defined personality in your reply style`, ch.Name)

	return Request{
		System:      b.String(),
		Prompt:      fmt.Sprintf("Please write a reply as %s responding to the comment: %q", ch.Name, comment.Content),
		MaxTokens:   80,
		Temperature: 0.8,
	}
}
