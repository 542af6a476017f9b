// Package site serves the public marketing content: the published blog, the
// landing page blocks and demo requests from visitors.
package site

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

const publishedKey = "published"

var ErrPostNotFound = errors.New("blog post not found")

// Transport is the part of api.Client the site needs.
type Transport interface {
	Do(ctx context.Context, method, path string, body any, token string, out any) error
}

type Service struct {
	api    Transport
	md     goldmark.Markdown
	logger *slog.Logger

	lists *expirable.LRU[string, []*domain.BlogPost]
	posts *expirable.LRU[string, *domain.BlogPost]
}

// New returns a Service caching blog reads for ttl. A zero ttl disables
// caching.
func New(transport Transport, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	size := 256
	if ttl <= 0 {
		size, ttl = 1, time.Nanosecond
	}
	return &Service{
		api: transport,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		logger: logger,
		lists:  expirable.NewLRU[string, []*domain.BlogPost](1, nil, ttl),
		posts:  expirable.NewLRU[string, *domain.BlogPost](size, nil, ttl),
	}
}

// Published returns published posts, newest first.
func (s *Service) Published(ctx context.Context) ([]*domain.BlogPost, error) {
	if posts, ok := s.lists.Get(publishedKey); ok {
		return posts, nil
	}

	var posts []*domain.BlogPost
	path := "/api/blogs?" + url.Values{"status": {domain.BlogPublished}}.Encode()
	if err := s.api.Do(ctx, http.MethodGet, path, nil, "", &posts); err != nil {
		return nil, fmt.Errorf("failed to load published posts: %w", err)
	}
	posts = slices.DeleteFunc(posts, func(p *domain.BlogPost) bool { return p.Status != domain.BlogPublished })
	slices.SortStableFunc(posts, func(a, b *domain.BlogPost) int {
		return cmp.Compare(publishedAt(b).UnixNano(), publishedAt(a).UnixNano())
	})

	s.lists.Add(publishedKey, posts)
	return posts, nil
}

// Post returns the published post with slug.
func (s *Service) Post(ctx context.Context, slug string) (*domain.BlogPost, error) {
	if post, ok := s.posts.Get(slug); ok {
		return post, nil
	}

	var post domain.BlogPost
	err := s.api.Do(ctx, http.MethodGet, "/api/blogs/slug/"+url.PathEscape(slug), nil, "", &post)
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post %q: %w", slug, err)
	}
	if post.Status != domain.BlogPublished {
		return nil, ErrPostNotFound
	}

	s.posts.Add(slug, &post)
	return &post, nil
}

// Invalidate drops cached posts after an admin edit.
func (s *Service) Invalidate() {
	s.lists.Purge()
	s.posts.Purge()
}

// Render converts a post's markdown body to HTML. Raw HTML in the source is
// not passed through.
func (s *Service) Render(post *domain.BlogPost) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(post.Content), &buf); err != nil {
		return "", fmt.Errorf("failed to render post %q: %w", post.Slug, err)
	}
	return template.HTML(buf.String()), nil
}

// BookDemo submits a visitor's demo request. The backend sets the status.
func (s *Service) BookDemo(ctx context.Context, p domain.DemoBookingPatch) (*domain.DemoBooking, error) {
	p.Status = nil
	if err := p.ValidateCreate(); err != nil {
		return nil, api.Invalid(err)
	}
	var booking domain.DemoBooking
	if err := s.api.Do(ctx, http.MethodPost, "/api/demo-bookings", p, "", &booking); err != nil {
		return nil, err
	}
	s.logger.Info("demo requested", "booking_id", booking.ID)
	return &booking, nil
}

func publishedAt(p *domain.BlogPost) time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}
