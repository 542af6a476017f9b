package resource

import (
	"log/slog"

	"github.com/vbonduro/shopassist/internal/domain"
)

type (
	Blogs        = Controller[*domain.BlogPost, domain.BlogPatch]
	DemoBookings = Controller[*domain.DemoBooking, domain.DemoBookingPatch]
	Media        = Controller[*domain.MediaItem, domain.MediaPatch]
	Users        = Controller[*domain.User, domain.UserPatch]
)

func NewBlogs(t Transport, tokens TokenSource, logger *slog.Logger) *Blogs {
	return New[*domain.BlogPost](t, tokens, Config[domain.BlogPatch]{
		Name:           "blogs",
		Path:           "/api/blogs",
		Statuses:       domain.BlogStatuses,
		StatusPatch:    func(s string) domain.BlogPatch { return domain.BlogPatch{Status: &s} },
		ValidateCreate: domain.BlogPatch.ValidateCreate,
		Validate:       domain.BlogPatch.Validate,
	}, logger)
}

func NewDemoBookings(t Transport, tokens TokenSource, logger *slog.Logger) *DemoBookings {
	return New[*domain.DemoBooking](t, tokens, Config[domain.DemoBookingPatch]{
		Name:           "demo_bookings",
		Path:           "/api/demo-bookings",
		Statuses:       domain.BookingStatuses,
		StatusPatch:    func(s string) domain.DemoBookingPatch { return domain.DemoBookingPatch{Status: &s} },
		ValidateCreate: domain.DemoBookingPatch.ValidateCreate,
		Validate:       domain.DemoBookingPatch.Validate,
	}, logger)
}

// NewMedia manages uploaded images. Media records are created by upload only.
func NewMedia(t Transport, tokens TokenSource, logger *slog.Logger) *Media {
	return New[*domain.MediaItem](t, tokens, Config[domain.MediaPatch]{
		Name:           "media",
		Path:           "/api/upload/images",
		UploadPath:     "/api/upload/image",
		UploadManyPath: "/api/upload/images",
		Statuses:       domain.MediaStatuses,
		StatusPatch:    func(s string) domain.MediaPatch { return domain.MediaPatch{Status: &s} },
		Validate:       domain.MediaPatch.Validate,
	}, logger)
}

func NewUsers(t Transport, tokens TokenSource, logger *slog.Logger) *Users {
	return New[*domain.User](t, tokens, Config[domain.UserPatch]{
		Name:           "users",
		Path:           "/api/users",
		Statuses:       domain.UserStatuses,
		StatusPatch:    func(s string) domain.UserPatch { return domain.UserPatch{Status: &s} },
		ValidateCreate: domain.UserPatch.Validate,
		Validate:       domain.UserPatch.Validate,
	}, logger)
}
