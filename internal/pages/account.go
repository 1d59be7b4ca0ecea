package pages

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/models"
)

func (p *Pages) loginForm(c *gin.Context) {
	if currentUser(c) != nil {
		p.redirect(c, "/")
		return
	}
	p.html(c, http.StatusOK, "login", gin.H{"Title": "Login", "Next": c.Query("next")})
}

func (p *Pages) login(c *gin.Context) {
	next := c.PostForm("next")

	var form models.LoginRequest
	if err := c.ShouldBind(&form); err != nil {
		p.flash(c, auth.FlashError, "Invalid username or password")
		p.redirect(c, "/login")
		return
	}

	user, err := p.svc.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if !isUserError(err) {
			p.fail(c, err)
			return
		}
		p.flash(c, auth.FlashError, userMessage(err))
		p.redirect(c, "/login")
		return
	}

	if err := p.sessions.Login(c.Writer, c.Request, user.ID); err != nil {
		p.fail(c, err)
		return
	}
	p.redirect(c, safeNext(next))
}

func (p *Pages) registerForm(c *gin.Context) {
	if currentUser(c) != nil {
		p.redirect(c, "/")
		return
	}
	p.html(c, http.StatusOK, "register", gin.H{"Title": "Register"})
}

func (p *Pages) register(c *gin.Context) {
	var form models.RegisterRequest
	if err := c.ShouldBind(&form); err != nil {
		p.html(c, http.StatusBadRequest, "register", gin.H{
			"Title": "Register",
			"Form":  form,
			"Error": "Please choose a username of at least 3 characters, a valid email and a password of at least 6 characters.",
		})
		return
	}

	if _, err := p.svc.Register(c.Request.Context(), form); err != nil {
		if !isUserError(err) {
			p.fail(c, err)
			return
		}
		p.html(c, http.StatusConflict, "register", gin.H{
			"Title": "Register",
			"Form":  form,
			"Error": userMessage(err),
		})
		return
	}

	p.flash(c, auth.FlashSuccess, "Registration successful! Please login.")
	p.redirect(c, "/login")
}

func (p *Pages) logout(c *gin.Context) {
	if err := p.sessions.Logout(c.Writer, c.Request); err != nil {
		p.log.WithError(err).Warn("Failed to clear session")
	}
	p.flash(c, auth.FlashInfo, "You have been logged out.")
	p.redirect(c, "/")
}
