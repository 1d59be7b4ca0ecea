package models

import "time"

const defaultFontFamily = `system-ui, -apple-system, "Segoe UI", Roboto, "Helvetica Neue", "Noto Sans", "Liberation Sans", Arial, sans-serif`

// AppearanceSettings is a single-row table holding the site theme.
type AppearanceSettings struct {
	ID               int       `gorm:"primaryKey" json:"id"`
	PrimaryColor     string    `gorm:"size:7" json:"primary_color"`
	SecondaryColor   string    `gorm:"size:7" json:"secondary_color"`
	BackgroundColor  string    `gorm:"size:7" json:"background_color"`
	FontColor        string    `gorm:"size:7" json:"font_color"`
	HeaderBackground string    `gorm:"size:7" json:"header_background"`
	FontFamily       string    `gorm:"type:text" json:"font_family"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultAppearance returns the bootstrap-dark defaults.
func DefaultAppearance() AppearanceSettings {
	return AppearanceSettings{
		PrimaryColor:     "#0d6efd",
		SecondaryColor:   "#6c757d",
		BackgroundColor:  "#212529",
		FontColor:        "#ffffff",
		HeaderBackground: "#212529",
		FontFamily:       defaultFontFamily,
	}
}

// AppearanceRequest updates only the fields that are set.
type AppearanceRequest struct {
	PrimaryColor     string `json:"primary_color" form:"primary_color" binding:"omitempty,hexcolor"`
	SecondaryColor   string `json:"secondary_color" form:"secondary_color" binding:"omitempty,hexcolor"`
	BackgroundColor  string `json:"background_color" form:"background_color" binding:"omitempty,hexcolor"`
	FontColor        string `json:"font_color" form:"font_color" binding:"omitempty,hexcolor"`
	HeaderBackground string `json:"header_background" form:"header_background" binding:"omitempty,hexcolor"`
	FontFamily       string `json:"font_family" form:"font_family" binding:"omitempty,max=500"`
}

// Apply copies the non-empty fields of the request onto s.
func (r AppearanceRequest) Apply(s *AppearanceSettings) {
	if r.PrimaryColor != "" {
		s.PrimaryColor = r.PrimaryColor
	}
	if r.SecondaryColor != "" {
		s.SecondaryColor = r.SecondaryColor
	}
	if r.BackgroundColor != "" {
		s.BackgroundColor = r.BackgroundColor
	}
	if r.FontColor != "" {
		s.FontColor = r.FontColor
	}
	if r.HeaderBackground != "" {
		s.HeaderBackground = r.HeaderBackground
	}
	if r.FontFamily != "" {
		s.FontFamily = r.FontFamily
	}
}

type DashboardStats struct {
	Users        int64 `json:"users"`
	Tools        int64 `json:"tools"`
	PendingTools int64 `json:"pending_tools"`
	Categories   int64 `json:"categories"`
	BlogPosts    int64 `json:"blog_posts"`
}
