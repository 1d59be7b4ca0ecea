// Package importer loads tool listings from JSON exports.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/choosemyai/backend/internal/content"
	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

// ErrNoOwner means the store has no admin and no password was configured
// for creating one.
var ErrNoOwner = errors.New("no admin to own imported tools; set seed.admin_password")

// Record is one tool in an import file. Several field names are accepted
// for each value, the first present wins.
type Record struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url"`
	YoutubeURL  string   `json:"youtube_url"`
	Resources   string   `json:"resources"`
	Categories  []string `json:"categories"`
	IsApproved  bool     `json:"is_approved"`
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	r.Name = firstString(fields, "name")
	r.Description = firstString(fields, "description")
	r.URL = firstString(fields, "url", "website")
	r.ImageURL = firstString(fields, "image_url", "logo", "icon")
	r.YoutubeURL = firstString(fields, "youtube_url", "video")
	r.Resources = firstString(fields, "resources", "additional_info")

	r.Categories = nil
	for _, key := range []string{"categories", "category"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var one string
		if err := json.Unmarshal(raw, &one); err == nil {
			r.Categories = []string{one}
			break
		}
		var many []string
		if err := json.Unmarshal(raw, &many); err != nil {
			return fmt.Errorf("%s must be a string or a list of strings", key)
		}
		r.Categories = many
		break
	}

	r.IsApproved = true
	if raw, ok := fields["is_approved"]; ok {
		if err := json.Unmarshal(raw, &r.IsApproved); err != nil {
			return errors.New("is_approved must be a boolean")
		}
	}
	return nil
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Parse accepts a top-level array, an object holding the array under
// "tools", "data" or "items", or a single tool object.
func Parse(data []byte) ([]Record, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var records []Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
		return records, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.New("JSON must be an array of tools or an object containing tools")
	}
	for _, key := range []string{"tools", "data", "items"} {
		if raw, ok := envelope[key]; ok {
			var records []Record
			if err := json.Unmarshal(raw, &records); err != nil {
				return nil, fmt.Errorf("error parsing %q: %w", key, err)
			}
			return records, nil
		}
	}

	var single Record
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("error parsing JSON file: %w", err)
	}
	return []Record{single}, nil
}

type Result struct {
	Imported int
	Skipped  int
	Failed   int
}

type Importer struct {
	store store.Store
	log   *logrus.Logger
	// Owner is created when the store has no admin to own imported tools.
	Owner store.SeedAdmin
}

func New(s store.Store, owner store.SeedAdmin, log *logrus.Logger) *Importer {
	return &Importer{store: s, Owner: owner, log: log}
}

// Import reads a JSON export and adds every tool whose name is not taken.
// A bad record is counted as failed and does not stop the run.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	var result Result

	data, err := io.ReadAll(r)
	if err != nil {
		return result, fmt.Errorf("error reading file: %w", err)
	}
	records, err := Parse(data)
	if err != nil {
		return result, err
	}

	owner, err := im.owner(ctx)
	if err != nil {
		return result, err
	}

	for _, rec := range records {
		entry := im.log.WithField("tool", rec.Name)

		imported, err := im.importOne(ctx, rec, owner.ID)
		switch {
		case err != nil:
			entry.WithError(err).Error("Error importing tool")
			result.Failed++
		case !imported:
			entry.Info("Skipping existing tool")
			result.Skipped++
		default:
			entry.Info("Imported tool")
			result.Imported++
		}
	}

	return result, nil
}

func (im *Importer) importOne(ctx context.Context, rec Record, ownerID int) (bool, error) {
	name := content.PlainText(rec.Name)
	if name == "" {
		name = "Unknown Tool"
	}

	_, err := im.store.GetToolByName(ctx, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	categoryIDs := make([]int, 0, len(rec.Categories))
	for _, categoryName := range rec.Categories {
		category, err := im.category(ctx, categoryName)
		if err != nil {
			return false, err
		}
		if category != nil {
			categoryIDs = append(categoryIDs, category.ID)
		}
	}

	description := content.SanitizeHTML(rec.Description)
	if description == "" {
		description = "No description provided"
	}

	tool := &models.Tool{
		Name:        name,
		Description: description,
		URL:         rec.URL,
		ImageURL:    rec.ImageURL,
		YoutubeURL:  rec.YoutubeURL,
		Resources:   content.SanitizeHTML(rec.Resources),
		IsApproved:  rec.IsApproved,
		UserID:      ownerID,
	}
	if err := im.store.CreateTool(ctx, tool, categoryIDs); err != nil {
		return false, err
	}
	return true, nil
}

// category gets or creates a category by name; blank names are ignored.
func (im *Importer) category(ctx context.Context, name string) (*models.Category, error) {
	name = content.PlainText(name)
	if name == "" {
		return nil, nil
	}

	existing, err := im.store.GetCategoryByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := im.store.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category %s: %w", name, err)
	}
	im.log.WithField("category", name).Info("Created new category")
	return category, nil
}

// owner returns the oldest admin, creating one if there is none.
func (im *Importer) owner(ctx context.Context) (*models.User, error) {
	users, err := im.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := len(users) - 1; i >= 0; i-- {
		if users[i].IsAdmin {
			return &users[i], nil
		}
	}

	if im.Owner.PasswordHash == "" {
		return nil, ErrNoOwner
	}
	admin := &models.User{
		Username:     im.Owner.Username,
		Email:        im.Owner.Email,
		PasswordHash: im.Owner.PasswordHash,
		IsAdmin:      true,
		IsModerator:  true,
	}
	if err := im.store.CreateUser(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin user: %w", err)
	}
	im.log.WithField("username", admin.Username).Info("Created admin user")
	return admin, nil
}

// Sample is an example import file.
func Sample() []byte {
	sample := map[string]any{
		"tools": []map[string]any{{
			"name":        "Example AI Tool",
			"description": "This is an example AI tool description",
			"url":         "https://example.com",
			"image_url":   "https://example.com/logo.png",
			"youtube_url": "https://youtube.com/watch?v=example",
			"categories":  []string{"AI Writing", "AI Productivity"},
			"resources":   "Additional information about the tool",
			"is_approved": true,
		}},
	}
	out, _ := json.MarshalIndent(sample, "", "  ")
	return out
}
