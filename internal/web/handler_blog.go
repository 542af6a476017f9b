package web

import (
	"net/http"
	"strings"

	"github.com/vbonduro/shopassist/internal/admin"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/domain"
)

var blogFormFields = []string{"title", "slug", "excerpt", "content", "author", "tags", "coverImage", "status"}

type blogFormPage struct {
	adminPage
	ID       string
	Values   map[string]string
	Statuses []string
	Err      string
}

func (s *Server) renderBlogForm(w http.ResponseWriter, r *http.Request, c *admin.Console, status int, data blogFormPage) {
	data.adminPage = s.adminPage(r, c, "New post", blogScreen.Name)
	if data.ID != "" {
		data.Title = "Edit post"
	}
	data.Statuses = domain.BlogStatuses
	if err := s.render(w, status, "base", data, "admin/base.html", "admin/blog_form.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleBlogNew(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	s.renderBlogForm(w, r, c, http.StatusOK, blogFormPage{Values: map[string]string{"status": domain.BlogDraft}})
}

func (s *Server) handleBlogEdit(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	id := r.PathValue("id")
	post, err := c.Workspace.Blogs.Get(r.Context(), id)
	if err != nil {
		s.adminFailed(w, r, c, err)
		return
	}
	values := map[string]string{
		"title":      post.Title,
		"slug":       post.Slug,
		"excerpt":    post.Excerpt,
		"content":    post.Content,
		"author":     post.Author,
		"tags":       strings.Join(post.Tags, ", "),
		"coverImage": post.CoverImage,
		"status":     post.Status,
	}
	s.renderBlogForm(w, r, c, http.StatusOK, blogFormPage{ID: id, Values: values})
}

func (s *Server) handleBlogCreate(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	values, p := blogForm(r)
	if _, err := c.Workspace.Blogs.Create(r.Context(), p); err != nil {
		s.blogFormFailed(w, r, c, blogFormPage{Values: values}, err)
		return
	}
	s.Site.Invalidate()
	redirect(w, r, blogScreen.Path)
}

func (s *Server) handleBlogUpdate(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	id := r.PathValue("id")
	values, p := blogForm(r)
	if _, err := c.Workspace.Blogs.Update(r.Context(), id, p); err != nil {
		s.blogFormFailed(w, r, c, blogFormPage{ID: id, Values: values}, err)
		return
	}
	s.Site.Invalidate()
	redirect(w, r, blogScreen.Path)
}

func (s *Server) blogFormFailed(w http.ResponseWriter, r *http.Request, c *admin.Console, data blogFormPage, err error) {
	if s.endSessionOnAuth(w, r, c, err) {
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("save blog post failed", "id", data.ID, "error", err)
	}
	data.Err = api.Message(err)
	s.renderBlogForm(w, r, c, status, data)
}

// blogForm reads the post form. An empty slug is derived from the title.
func blogForm(r *http.Request) (map[string]string, domain.BlogPatch) {
	values := make(map[string]string, len(blogFormFields))
	for _, f := range blogFormFields {
		values[f] = strings.TrimSpace(r.FormValue(f))
	}
	if values["slug"] == "" {
		values["slug"] = slugify(values["title"])
	}

	p := domain.BlogPatch{
		Title:      domain.Ptr(values["title"]),
		Slug:       domain.Ptr(values["slug"]),
		Excerpt:    domain.Ptr(values["excerpt"]),
		Content:    domain.Ptr(values["content"]),
		Author:     domain.Ptr(values["author"]),
		CoverImage: domain.Ptr(values["coverImage"]),
		Tags:       splitTags(values["tags"]),
	}
	if values["status"] != "" {
		p.Status = domain.Ptr(values["status"])
	}
	return values, p
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// slugify lowercases s and keeps letters, digits and single dashes.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		if r == ' ' || r == '_' {
			return '-'
		}
		return -1
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
