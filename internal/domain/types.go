package domain

import (
	"strings"
	"time"
)

const (
	BlogDraft     = "draft"
	BlogPublished = "published"

	BookingPending   = "pending"
	BookingScheduled = "scheduled"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"

	MediaActive   = "active"
	MediaArchived = "archived"

	UserActive   = "active"
	UserDisabled = "disabled"

	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Status sets per resource, in display order.
var (
	BlogStatuses    = []string{BlogDraft, BlogPublished}
	BookingStatuses = []string{BookingPending, BookingScheduled, BookingCompleted, BookingCancelled}
	MediaStatuses   = []string{MediaActive, MediaArchived}
	UserStatuses    = []string{UserActive, UserDisabled}
	UserRoles       = []string{RoleAdmin, RoleEditor, RoleViewer}
)

// ValidStatus reports whether status is one of allowed.
func ValidStatus(allowed []string, status string) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

type BlogPost struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Content     string     `json:"content"`
	Author      string     `json:"author,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CoverImage  string     `json:"coverImage,omitempty"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (b *BlogPost) GetID() string { return b.ID }
func (b *BlogPost) GetStatus() string { return b.Status }
func (b *BlogPost) Label() string { return b.Title }
func (b *BlogPost) Created() time.Time { return b.CreatedAt }
func (b *BlogPost) SearchFields() []string {
	return []string{b.Title, b.Excerpt, b.Author, strings.Join(b.Tags, " ")}
}

// BlogPatch carries the supplied fields of a create or update; nil fields are
// left untouched by the backend.
type BlogPatch struct {
	Title      *string  `json:"title,omitempty"`
	Slug       *string  `json:"slug,omitempty"`
	Excerpt    *string  `json:"excerpt,omitempty"`
	Content    *string  `json:"content,omitempty"`
	Author     *string  `json:"author,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	CoverImage *string  `json:"coverImage,omitempty"`
	Status     *string  `json:"status,omitempty"`
}

type DemoBooking struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Company       string     `json:"company,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Message       string     `json:"message,omitempty"`
	PreferredDate string     `json:"preferredDate,omitempty"`
	Status        string     `json:"status"`
	ScheduledAt   *time.Time `json:"scheduledAt,omitempty"`
	AdminNotes    string     `json:"adminNotes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// BookingUserFields are captured from the visitor and never edited by an
// operator afterwards.
var BookingUserFields = []string{"name", "email", "company", "phone", "message", "preferredDate"}

func (d *DemoBooking) GetID() string { return d.ID }
func (d *DemoBooking) GetStatus() string { return d.Status }
func (d *DemoBooking) Label() string { return d.Name }
func (d *DemoBooking) Created() time.Time { return d.CreatedAt }
func (d *DemoBooking) SearchFields() []string {
	return []string{d.Name, d.Email, d.Company, d.Phone, d.Message}
}

// Field returns the display value of a named booking field.
func (d *DemoBooking) Field(name string) string {
	switch name {
	case "name":
		return d.Name
	case "email":
		return d.Email
	case "company":
		return d.Company
	case "phone":
		return d.Phone
	case "message":
		return d.Message
	case "preferredDate":
		return d.PreferredDate
	case "status":
		return d.Status
	case "scheduledAt":
		if d.ScheduledAt == nil {
			return ""
		}
		return d.ScheduledAt.Format(time.RFC3339)
	case "adminNotes":
		return d.AdminNotes
	default:
		return ""
	}
}

type DemoBookingPatch struct {
	Name          *string    `json:"name,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Company       *string    `json:"company,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	Message       *string    `json:"message,omitempty"`
	PreferredDate *string    `json:"preferredDate,omitempty"`
	Status        *string    `json:"status,omitempty"`
	ScheduledAt   *time.Time `json:"scheduledAt,omitempty"`
	AdminNotes    *string    `json:"adminNotes,omitempty"`
}

type MediaItem struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName,omitempty"`
	URL          string    `json:"url"`
	MimeType     string    `json:"mimeType,omitempty"`
	Size         int64     `json:"size"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (m *MediaItem) GetID() string { return m.ID }
func (m *MediaItem) GetStatus() string { return m.Status }
func (m *MediaItem) Created() time.Time { return m.CreatedAt }
func (m *MediaItem) Label() string {
	if m.OriginalName != "" {
		return m.OriginalName
	}
	return m.Filename
}
func (m *MediaItem) SearchFields() []string {
	return []string{m.Filename, m.OriginalName, m.MimeType}
}

type MediaPatch struct {
	Filename *string `json:"filename,omitempty"`
	Status   *string `json:"status,omitempty"`
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (u *User) GetID() string { return u.ID }
func (u *User) GetStatus() string { return u.Status }
func (u *User) Created() time.Time { return u.CreatedAt }
func (u *User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
func (u *User) SearchFields() []string {
	return []string{u.Email, u.DisplayName, u.Role}
}

type UserPatch struct {
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	Role        *string `json:"role,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
