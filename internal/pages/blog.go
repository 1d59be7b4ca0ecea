package pages

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/auth"
)

func (p *Pages) blogIndex(c *gin.Context) {
	posts, err := p.store.ListBlogPosts(c.Request.Context(), true)
	if err != nil {
		p.fail(c, err)
		return
	}
	p.html(c, http.StatusOK, "blog", gin.H{"Title": "Blog", "Posts": posts})
}

// blogPost shows drafts to admins with a warning banner.
func (p *Pages) blogPost(c *gin.Context) {
	post, err := p.svc.ViewBlogPost(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		p.fail(c, err)
		return
	}

	data := gin.H{"Title": post.Title, "Post": post}
	if !post.Published {
		data["Draft"] = auth.Flash{Category: auth.FlashWarning, Message: "This blog post is not published yet."}
	}
	p.html(c, http.StatusOK, "blog_post", data)
}
