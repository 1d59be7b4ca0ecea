package pages

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

func (p *Pages) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := store.Stats(ctx, p.store)
	if err != nil {
		p.fail(c, err)
		return
	}

	pending, err := p.store.ListTools(ctx, store.ToolFilter{Approved: store.Pending(), Sort: store.SortNewest, Limit: 5})
	if err != nil {
		p.fail(c, err)
		return
	}

	p.html(c, http.StatusOK, "admin/dashboard", gin.H{
		"Title":   "Admin Dashboard",
		"Stats":   stats,
		"Pending": pending,
	})
}

func (p *Pages) adminUsers(c *gin.Context) {
	users, err := p.store.ListUsers(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	p.html(c, http.StatusOK, "admin/users", gin.H{"Title": "Manage Users", "Users": users})
}

// updateRoles reads two checkboxes; an unchecked box revokes the role.
func (p *Pages) updateRoles(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}

	isAdmin := c.PostForm("is_admin") == "true"
	isModerator := c.PostForm("is_moderator") == "true"
	user, err := p.svc.SetRoles(c.Request.Context(), currentUser(c), id, models.UpdateRolesRequest{
		IsAdmin:     &isAdmin,
		IsModerator: &isModerator,
	})
	switch {
	case err == nil:
		p.flash(c, auth.FlashSuccess, fmt.Sprintf("Roles updated for %s.", user.Username))
	case isUserError(err):
		p.flash(c, auth.FlashError, userMessage(err))
	default:
		p.fail(c, err)
		return
	}
	p.redirect(c, "/admin/users")
}

// adminTools shows the moderation queue above the full listing.
func (p *Pages) adminTools(c *gin.Context) {
	ctx := c.Request.Context()
	pending, err := p.store.ListTools(ctx, store.ToolFilter{Approved: store.Pending(), Sort: store.SortNewest})
	if err != nil {
		p.fail(c, err)
		return
	}
	approved, err := p.store.ListTools(ctx, store.ToolFilter{Approved: store.Approved(), Sort: store.SortNewest})
	if err != nil {
		p.fail(c, err)
		return
	}

	p.html(c, http.StatusOK, "admin/tools", gin.H{
		"Title":    "Manage Tools",
		"Pending":  pending,
		"Approved": approved,
	})
}

func (p *Pages) approveTool(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}
	if err := p.svc.Approve(c.Request.Context(), currentUser(c), id); err != nil {
		p.fail(c, err)
		return
	}
	p.flash(c, auth.FlashSuccess, "Tool approved successfully!")
	p.redirect(c, "/admin/tools")
}

func (p *Pages) rejectTool(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}
	if err := p.svc.Reject(c.Request.Context(), currentUser(c), id); err != nil {
		p.fail(c, err)
		return
	}
	p.flash(c, auth.FlashSuccess, "Tool rejected and removed.")
	p.redirect(c, "/admin/tools")
}

func (p *Pages) editToolForm(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}

	tool, err := p.store.GetTool(c.Request.Context(), id)
	if err != nil {
		p.fail(c, err)
		return
	}

	form := models.SubmitToolRequest{
		Name:        tool.Name,
		Description: tool.Description,
		URL:         tool.URL,
		ImageURL:    tool.ImageURL,
		YoutubeURL:  tool.YoutubeURL,
		Resources:   tool.Resources,
		CategoryIDs: tool.CategoryIDs(),
	}
	p.renderToolForm(c, http.StatusOK, tool, form, "")
}

func (p *Pages) renderToolForm(c *gin.Context, status int, tool *models.Tool, form models.SubmitToolRequest, formError string) {
	categories, err := p.store.ListCategories(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}

	p.html(c, status, "admin/tool_form", gin.H{
		"Title":      "Edit " + tool.Name,
		"Tool":       tool,
		"Form":       form,
		"Categories": categories,
		"Selected":   selectedSet(form.CategoryIDs),
		"Error":      formError,
	})
}

func (p *Pages) editTool(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}

	tool, err := p.store.GetTool(c.Request.Context(), id)
	if err != nil {
		p.fail(c, err)
		return
	}

	var form models.SubmitToolRequest
	if err := c.ShouldBind(&form); err != nil {
		p.renderToolForm(c, http.StatusBadRequest, tool, form, "Please provide a name, description, valid URL and at least one category.")
		return
	}

	if _, err := p.svc.EditTool(c.Request.Context(), id, form); err != nil {
		if isUserError(err) {
			p.renderToolForm(c, http.StatusBadRequest, tool, form, userMessage(err))
			return
		}
		p.fail(c, err)
		return
	}

	p.flash(c, auth.FlashSuccess, "Tool updated successfully!")
	p.redirect(c, "/admin/tools")
}

func (p *Pages) adminCategories(c *gin.Context) {
	categories, err := p.store.ListCategories(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	p.html(c, http.StatusOK, "admin/categories", gin.H{"Title": "Manage Categories", "Categories": categories})
}

func (p *Pages) createCategory(c *gin.Context) {
	p.saveCategory(c, 0, "Category created successfully!")
}

func (p *Pages) updateCategory(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}
	p.saveCategory(c, id, "Category updated successfully!")
}

func (p *Pages) saveCategory(c *gin.Context, id int, success string) {
	var form models.CategoryRequest
	if err := c.ShouldBind(&form); err != nil {
		p.flash(c, auth.FlashError, "Category name is required.")
		p.redirect(c, "/admin/categories")
		return
	}

	_, err := p.svc.SaveCategory(c.Request.Context(), id, form)
	switch {
	case err == nil:
		p.flash(c, auth.FlashSuccess, success)
	case isUserError(err):
		p.flash(c, auth.FlashError, userMessage(err))
	default:
		p.fail(c, err)
		return
	}
	p.redirect(c, "/admin/categories")
}

func (p *Pages) deleteCategory(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}
	if err := p.store.DeleteCategory(c.Request.Context(), id); err != nil {
		p.fail(c, err)
		return
	}
	p.flash(c, auth.FlashSuccess, "Category deleted successfully!")
	p.redirect(c, "/admin/categories")
}

func (p *Pages) appearanceForm(c *gin.Context) {
	settings, err := p.store.GetAppearance(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	p.html(c, http.StatusOK, "admin/appearance", gin.H{
		"Title":    "Appearance Settings",
		"Settings": settings,
		"Fonts":    fontChoices,
	})
}

var fontChoices = []string{
	models.DefaultAppearance().FontFamily,
	`Georgia, "Times New Roman", serif`,
	`"Courier New", Courier, monospace`,
	`"Trebuchet MS", Helvetica, sans-serif`,
	`Verdana, Geneva, sans-serif`,
}

func (p *Pages) updateAppearance(c *gin.Context) {
	var form models.AppearanceRequest
	if err := c.ShouldBind(&form); err != nil {
		p.flash(c, auth.FlashError, "Colors must be hex values like #1a2b3c.")
		p.redirect(c, "/admin/appearance")
		return
	}

	if _, err := p.svc.UpdateAppearance(c.Request.Context(), form); err != nil {
		p.fail(c, err)
		return
	}
	p.flash(c, auth.FlashSuccess, "Appearance settings updated successfully!")
	p.redirect(c, "/admin/appearance")
}

func (p *Pages) adminBlog(c *gin.Context) {
	posts, err := p.store.ListBlogPosts(c.Request.Context(), false)
	if err != nil {
		p.fail(c, err)
		return
	}
	p.html(c, http.StatusOK, "admin/blog", gin.H{"Title": "Manage Blog", "Posts": posts})
}

func (p *Pages) newPostForm(c *gin.Context) {
	p.renderPostForm(c, http.StatusOK, 0, models.BlogPostRequest{}, "")
}

func (p *Pages) renderPostForm(c *gin.Context, status, id int, form models.BlogPostRequest, formError string) {
	title := "New Blog Post"
	if id != 0 {
		title = "Edit Blog Post"
	}
	p.html(c, status, "admin/blog_form", gin.H{
		"Title":  title,
		"PostID": id,
		"Form":   form,
		"Error":  formError,
	})
}

func (p *Pages) createPost(c *gin.Context) {
	var form models.BlogPostRequest
	if err := c.ShouldBind(&form); err != nil {
		p.renderPostForm(c, http.StatusBadRequest, 0, form, "Title and content are required.")
		return
	}

	if _, err := p.svc.CreateBlogPost(c.Request.Context(), currentUser(c), form); err != nil {
		p.fail(c, err)
		return
	}
	p.flash(c, auth.FlashSuccess, "Blog post created successfully!")
	p.redirect(c, "/admin/blog")
}

func (p *Pages) editPostForm(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}

	post, err := p.store.GetBlogPost(c.Request.Context(), id)
	if err != nil {
		p.fail(c, err)
		return
	}

	p.renderPostForm(c, http.StatusOK, id, models.BlogPostRequest{
		Title:         post.Title,
		Content:       post.Content,
		Excerpt:       post.Excerpt,
		FeaturedImage: post.FeaturedImage,
		Published:     post.Published,
	}, "")
}

func (p *Pages) updatePost(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}

	var form models.BlogPostRequest
	if err := c.ShouldBind(&form); err != nil {
		p.renderPostForm(c, http.StatusBadRequest, id, form, "Title and content are required.")
		return
	}

	if _, err := p.svc.UpdateBlogPost(c.Request.Context(), id, form); err != nil {
		p.fail(c, err)
		return
	}
	p.flash(c, auth.FlashSuccess, "Blog post updated successfully!")
	p.redirect(c, "/admin/blog")
}

func (p *Pages) deletePost(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}
	if err := p.store.DeleteBlogPost(c.Request.Context(), id); err != nil {
		p.fail(c, err)
		return
	}
	p.flash(c, auth.FlashSuccess, "Blog post deleted successfully!")
	p.redirect(c, "/admin/blog")
}

func (p *Pages) togglePost(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}

	post, err := p.svc.TogglePublished(c.Request.Context(), id)
	if err != nil {
		p.fail(c, err)
		return
	}

	status := "unpublished"
	if post.Published {
		status = "published"
	}
	p.flash(c, auth.FlashSuccess, fmt.Sprintf("Blog post %s successfully!", status))
	p.redirect(c, "/admin/blog")
}
