package web

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/domain"
	"github.com/vbonduro/shopassist/internal/identity"
	"github.com/vbonduro/shopassist/internal/newsletter"
	"github.com/vbonduro/shopassist/internal/session"
	"github.com/vbonduro/shopassist/internal/site"
	"github.com/vbonduro/shopassist/internal/voice"
)

const homeRecentPosts = 3

// publicPage carries what the public layout needs on every page.
type publicPage struct {
	Title string
	Theme session.ThemeMode
	Chat  chatView
}

type homePage struct {
	publicPage
	Features     []site.Feature
	Plans        []site.Plan
	Testimonials []site.Testimonial
	Posts        []*domain.BlogPost
	Demo         demoForm
}

type demoForm struct {
	Values  map[string]string
	Err     string
	Success bool
}

var demoFields = []string{"name", "email", "company", "phone", "message", "preferredDate"}

func (s *Server) publicPage(r *http.Request, title string) publicPage {
	kv := s.Store.Scope(deviceID(r))
	theme, err := session.NewTheme(kv).Current(r.Context())
	if err != nil {
		s.logger.Warn("read theme failed", "error", err)
	}
	return publicPage{Title: title, Theme: theme, Chat: s.chatView(r, "")}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	posts, err := s.Site.Published(r.Context())
	if err != nil {
		// The landing page still renders without the blog teaser.
		s.logger.Warn("load published posts failed", "error", err)
	}
	if len(posts) > homeRecentPosts {
		posts = posts[:homeRecentPosts]
	}
	data := homePage{
		publicPage:   s.publicPage(r, "AI shopping assistant for your store"),
		Features:     site.Features(),
		Plans:        site.Plans(),
		Testimonials: site.Testimonials(),
		Posts:        posts,
	}
	if err := s.renderPage(w, data, "base.html", "pages/home.html", "partials/demo_form.html", "partials/chat.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

type blogIndexPage struct {
	publicPage
	Posts []*domain.BlogPost
	Err   string
}

func (s *Server) handleBlogIndex(w http.ResponseWriter, r *http.Request) {
	data := blogIndexPage{publicPage: s.publicPage(r, "Blog")}
	posts, err := s.Site.Published(r.Context())
	if err != nil {
		s.logger.Error("load published posts failed", "error", err)
		data.Err = "The blog is unavailable right now."
	}
	data.Posts = posts
	if err := s.renderPage(w, data, "base.html", "pages/blog.html", "partials/chat.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

type blogPostPage struct {
	publicPage
	Post *domain.BlogPost
	Body template.HTML
}

func (s *Server) handleBlogPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	post, err := s.Site.Post(r.Context(), slug)
	if errors.Is(err, site.ErrPostNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load post", http.StatusBadGateway)
		s.logger.Error("load post failed", "slug", slug, "error", err)
		return
	}
	body, err := s.Site.Render(post)
	if err != nil {
		http.Error(w, "failed to render post", http.StatusInternalServerError)
		s.logger.Error("render markdown failed", "slug", slug, "error", err)
		return
	}
	data := blogPostPage{publicPage: s.publicPage(r, post.Title), Post: post, Body: body}
	if err := s.renderPage(w, data, "base.html", "pages/post.html", "partials/chat.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleBookDemo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := demoForm{Values: make(map[string]string, len(demoFields))}
	for _, f := range demoFields {
		form.Values[f] = strings.TrimSpace(r.PostForm.Get(f))
	}

	p := domain.DemoBookingPatch{
		Name:  domain.Ptr(form.Values["name"]),
		Email: domain.Ptr(form.Values["email"]),
	}
	optional := map[string]**string{
		"company":       &p.Company,
		"phone":         &p.Phone,
		"message":       &p.Message,
		"preferredDate": &p.PreferredDate,
	}
	for f, dst := range optional {
		if v := form.Values[f]; v != "" {
			*dst = domain.Ptr(v)
		}
	}

	status := http.StatusOK
	if _, err := s.Site.BookDemo(r.Context(), p); err != nil {
		status = statusFor(err)
		form.Err = api.Message(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("book demo failed", "error", err)
			form.Err = "We couldn't send your request. Please try again."
		}
	} else {
		form = demoForm{Success: true}
	}
	if err := s.renderPartialStatus(w, status, "partials/demo_form.html", form); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

type newsletterView struct {
	Message string
	OK      bool
}

func (s *Server) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	status := http.StatusOK
	v := newsletterView{OK: true, Message: "Thanks for subscribing!"}

	if err := s.Newsletter.Subscribe(r.Context(), email); err != nil {
		v.OK = false
		switch {
		case errors.Is(err, newsletter.ErrNotConfigured):
			status = http.StatusServiceUnavailable
			v.Message = "Newsletter sign-up is not available."
		case api.KindOf(err) == api.KindValidation:
			status = http.StatusUnprocessableEntity
			v.Message = "Please enter a valid email address."
		default:
			status = http.StatusBadGateway
			v.Message = "Something went wrong. Please try again."
			s.logger.Error("newsletter signup failed", "error", err)
		}
	}
	if err := s.renderPartialStatus(w, status, "partials/newsletter.html", v); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

type voicePage struct {
	publicPage
	EmbedURL string
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	data := voicePage{publicPage: s.publicPage(r, "Talk to our assistant")}
	kv := s.Store.Scope(deviceID(r))
	userID, err := identity.AnonymousUserID(r.Context(), kv)
	if err != nil {
		http.Error(w, "failed to load visitor id", http.StatusInternalServerError)
		s.logger.Error("anonymous user id failed", "error", err)
		return
	}
	embed, err := voice.EmbedURL(s.settings.VoiceServiceURL, string(data.Theme), userID)
	if err != nil && !errors.Is(err, voice.ErrNotConfigured) {
		s.logger.Error("voice embed url failed", "error", err)
	}
	data.EmbedURL = embed
	if err := s.renderPage(w, data, "base.html", "pages/voice.html", "partials/chat.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handleToggleTheme flips the visitor's theme and sends them back where they
// came from.
func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	if _, err := session.NewTheme(s.Store.Scope(deviceID(r))).Toggle(r.Context()); err != nil {
		http.Error(w, "failed to save theme", http.StatusInternalServerError)
		s.logger.Error("toggle theme failed", "error", err)
		return
	}
	redirect(w, r, backTo(r, "/"))
}

// backTo returns the local path of the Referer, or fallback.
func backTo(r *http.Request, fallback string) string {
	u, err := url.Parse(r.Referer())
	if err != nil || u.Path == "" || (u.Host != "" && u.Host != r.Host) {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
