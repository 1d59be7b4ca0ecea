package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/choosemyai/backend/internal/models"
)

// SeedAdmin describes the bootstrap administrator. PasswordHash must
// already be hashed.
type SeedAdmin struct {
	Username     string
	Email        string
	PasswordHash string
}

var seedCategories = []models.Category{
	{Name: "AI Writing", Description: "AI-powered writing and content creation tools"},
	{Name: "AI Image Generation", Description: "Tools for creating images with AI"},
	{Name: "AI Video", Description: "AI video creation and editing tools"},
	{Name: "AI Chatbots", Description: "Chatbot and conversational AI tools"},
	{Name: "AI Research", Description: "Research and analysis AI tools"},
	{Name: "AI Productivity", Description: "Productivity and workflow AI tools"},
	{Name: "AI Development", Description: "AI tools for developers"},
	{Name: "AI Business", Description: "Business and marketing AI tools"},
}

var seedTools = []struct {
	tool       models.Tool
	categories []string
}{
	{
		tool: models.Tool{
			Name:        "ChatGPT",
			Description: "Advanced language model for conversation and text generation",
			URL:         "https://chat.openai.com",
			ImageURL:    "https://via.placeholder.com/300x200?text=ChatGPT",
		},
		categories: []string{"AI Writing", "AI Research"},
	},
	{
		tool: models.Tool{
			Name:        "Midjourney",
			Description: "AI art generation tool for creating stunning images",
			URL:         "https://midjourney.com",
			ImageURL:    "https://via.placeholder.com/300x200?text=Midjourney",
		},
		categories: []string{"AI Image Generation"},
	},
	{
		tool: models.Tool{
			Name:        "GitHub Copilot",
			Description: "AI-powered code completion and generation tool",
			URL:         "https://github.com/features/copilot",
			ImageURL:    "https://via.placeholder.com/300x200?text=GitHub+Copilot",
		},
		categories: []string{"AI Development"},
	},
}

const welcomePost = `<h1>Welcome to ChooseMyAI!</h1>
<p>This is your comprehensive directory of AI tools and resources. Here you can discover, rate, and review the best AI tools available today.</p>
<h2>Getting Started</h2>
<ul>
<li>Browse tools by category</li>
<li>Search for specific tools</li>
<li>Submit your own AI tools</li>
<li>Rate and comment on tools</li>
</ul>
<p>Happy exploring!</p>`

// Seed fills an empty store with the admin account, the default categories,
// a few approved tools and a welcome post. Stores that already have users
// are left alone, so Seed is safe to run on every start.
func Seed(ctx context.Context, s Store, admin SeedAdmin) error {
	count, err := s.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	owner := &models.User{
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		IsAdmin:      true,
		IsModerator:  true,
	}
	if err := s.CreateUser(ctx, owner); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	byName := make(map[string]int, len(seedCategories))
	for _, c := range seedCategories {
		category := c
		existing, err := s.GetCategoryByName(ctx, category.Name)
		switch {
		case err == nil:
			byName[category.Name] = existing.ID
			continue
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("lookup category %s: %w", category.Name, err)
		}
		if err := s.CreateCategory(ctx, &category); err != nil {
			return fmt.Errorf("create category %s: %w", category.Name, err)
		}
		byName[category.Name] = category.ID
	}

	for _, seed := range seedTools {
		tool := seed.tool
		tool.UserID = owner.ID
		tool.IsApproved = true

		ids := make([]int, 0, len(seed.categories))
		for _, name := range seed.categories {
			ids = append(ids, byName[name])
		}
		if err := s.CreateTool(ctx, &tool, ids); err != nil {
			return fmt.Errorf("create tool %s: %w", tool.Name, err)
		}
	}

	post := &models.BlogPost{
		Title:     "Welcome to ChooseMyAI",
		Slug:      "welcome-to-choosemyai",
		Content:   welcomePost,
		Excerpt:   "Welcome to your comprehensive directory of AI tools and resources.",
		Published: true,
		UserID:    owner.ID,
	}
	if err := s.CreateBlogPost(ctx, post); err != nil {
		return fmt.Errorf("create welcome post: %w", err)
	}

	if _, err := s.GetAppearance(ctx); err != nil {
		return fmt.Errorf("init appearance: %w", err)
	}

	return nil
}
