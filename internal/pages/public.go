package pages

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	texttemplate "text/template"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

func (p *Pages) index(c *gin.Context) {
	ctx := c.Request.Context()
	categoryID, _ := strconv.Atoi(c.Query("category"))
	search := strings.TrimSpace(c.Query("q"))
	sort := store.NormalizeSort(c.Query("sort"))

	tools, err := p.store.ListTools(ctx, store.ToolFilter{
		Approved:   store.Approved(),
		CategoryID: categoryID,
		Search:     search,
		Sort:       sort,
	})
	if err != nil {
		p.fail(c, err)
		return
	}

	categories, err := p.store.ListCategories(ctx)
	if err != nil {
		p.fail(c, err)
		return
	}

	p.html(c, http.StatusOK, "index", gin.H{
		"Title":            "Discover AI Tools",
		"Tools":            tools,
		"Categories":       categories,
		"SelectedCategory": categoryID,
		"Search":           search,
		"Sort":             sort,
	})
}

func (p *Pages) category(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}

	category, err := p.store.GetCategory(c.Request.Context(), id)
	if err != nil {
		p.fail(c, err)
		return
	}

	sort := store.NormalizeSort(c.Query("sort"))
	tools, err := p.store.ListTools(c.Request.Context(), store.ToolFilter{
		Approved:   store.Approved(),
		CategoryID: id,
		Sort:       sort,
	})
	if err != nil {
		p.fail(c, err)
		return
	}

	p.html(c, http.StatusOK, "category", gin.H{
		"Title":    category.Name,
		"Category": category,
		"Tools":    tools,
		"Sort":     sort,
	})
}

func (p *Pages) tool(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}

	sort := store.NormalizeSort(c.Query("sort"))
	page, err := p.svc.ToolPage(c.Request.Context(), currentUser(c), id, sort)
	if err != nil {
		p.fail(c, err)
		return
	}

	p.html(c, http.StatusOK, "tool", gin.H{
		"Title":    page.Tool.Name,
		"Tool":     page.Tool,
		"Comments": page.Comments,
		"Similar":  page.Similar,
		"Sort":     sort,
	})
}

func (p *Pages) addComment(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}

	back := fmt.Sprintf("/tool/%d", id)
	_, err := p.svc.AddComment(c.Request.Context(), currentUser(c), id, c.PostForm("content"))
	switch {
	case err == nil:
		p.flash(c, auth.FlashSuccess, "Comment added successfully!")
	case isUserError(err):
		p.flash(c, auth.FlashError, userMessage(err))
	default:
		p.fail(c, err)
		return
	}
	p.redirect(c, back)
}

func (p *Pages) deleteComment(c *gin.Context) {
	id, ok := p.id(c)
	if !ok {
		return
	}

	comment, err := p.svc.DeleteComment(c.Request.Context(), currentUser(c), id)
	if err != nil {
		p.fail(c, err)
		return
	}

	p.flash(c, auth.FlashSuccess, "Comment deleted.")
	p.redirect(c, fmt.Sprintf("/tool/%d", comment.ToolID))
}

func (p *Pages) submitForm(c *gin.Context) {
	p.renderSubmit(c, http.StatusOK, models.SubmitToolRequest{}, "")
}

func (p *Pages) renderSubmit(c *gin.Context, status int, form models.SubmitToolRequest, formError string) {
	categories, err := p.store.ListCategories(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}

	p.html(c, status, "submit", gin.H{
		"Title":      "Submit a Tool",
		"Categories": categories,
		"Form":       form,
		"Selected":   selectedSet(form.CategoryIDs),
		"Error":      formError,
	})
}

func (p *Pages) submit(c *gin.Context) {
	var form models.SubmitToolRequest
	if err := c.ShouldBind(&form); err != nil {
		p.renderSubmit(c, http.StatusBadRequest, form, "Please provide a name, description, valid URL and at least one category.")
		return
	}

	_, err := p.svc.SubmitTool(c.Request.Context(), currentUser(c), form)
	if err != nil {
		if isUserError(err) {
			p.renderSubmit(c, http.StatusBadRequest, form, userMessage(err))
			return
		}
		p.fail(c, err)
		return
	}

	p.flash(c, auth.FlashSuccess, "Tool submitted successfully! It will be reviewed by our moderators.")
	p.redirect(c, "/my-tools")
}

// myTools lists the visitor's submissions with their review status.
func (p *Pages) myTools(c *gin.Context) {
	tools, err := p.store.ListTools(c.Request.Context(), store.ToolFilter{
		UserID: currentUser(c).ID,
		Sort:   store.SortNewest,
	})
	if err != nil {
		p.fail(c, err)
		return
	}
	p.html(c, http.StatusOK, "my_tools", gin.H{"Title": "My tools", "Tools": tools})
}

// voteValue reads the vote from the path, falling back to the form or
// JSON body.
func voteValue(c *gin.Context) (int, bool) {
	if raw := c.Param("value"); raw != "" {
		v, err := strconv.Atoi(raw)
		return v, err == nil && models.ValidVote(v)
	}
	var req models.VoteRequest
	if err := c.ShouldBind(&req); err != nil {
		return 0, false
	}
	return req.Value, true
}

func (p *Pages) voteTool(c *gin.Context) {
	p.vote(c, func(userID, id, value int) (models.VoteResult, error) {
		if _, err := p.svc.ViewTool(c.Request.Context(), currentUser(c), id); err != nil {
			return models.VoteResult{}, err
		}
		return p.store.VoteTool(c.Request.Context(), userID, id, value)
	})
}

func (p *Pages) voteComment(c *gin.Context) {
	p.vote(c, func(userID, id, value int) (models.VoteResult, error) {
		if _, err := p.svc.ViewComment(c.Request.Context(), currentUser(c), id); err != nil {
			return models.VoteResult{}, err
		}
		return p.store.VoteComment(c.Request.Context(), userID, id, value)
	})
}

func (p *Pages) vote(c *gin.Context, cast func(userID, id, value int) (models.VoteResult, error)) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}
	value, ok := voteValue(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote value"})
		return
	}

	result, err := cast(currentUser(c).ID, id, value)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		p.log.WithError(err).Error("Failed to record vote")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record vote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"votes": result.Score, "user_vote": result.UserVote})
}

var cssTemplate = texttemplate.Must(texttemplate.New("custom.css.tmpl").Funcs(texttemplate.FuncMap{
	"css": cssValue,
}).ParseFS(assets, "templates/custom.css.tmpl"))

// cssValue drops characters that could end a declaration early.
func cssValue(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '\\':
			return -1
		}
		return r
	}, s)
}

// customCSS renders the theme from the appearance settings. The ETag lets
// browsers keep their copy until an admin changes the theme.
func (p *Pages) customCSS(c *gin.Context) {
	settings, err := p.store.GetAppearance(c.Request.Context())
	if err != nil {
		p.log.WithError(err).Error("Failed to load appearance settings")
		c.Data(http.StatusInternalServerError, "text/css; charset=utf-8", []byte("/* Error loading custom CSS */"))
		return
	}

	var buf bytes.Buffer
	if err := cssTemplate.Execute(&buf, settings); err != nil {
		p.log.WithError(err).Error("Failed to render custom CSS")
		c.Data(http.StatusInternalServerError, "text/css; charset=utf-8", []byte("/* Error loading custom CSS */"))
		return
	}

	etag := fmt.Sprintf(`"%x"`, xxhash.Sum64(buf.Bytes()))
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "text/css; charset=utf-8", buf.Bytes())
}

func selectedSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
