package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tnpportal/portal/utils"
)

// Category classifies a post. The set is closed.
type Category string

const (
	CategoryJob          Category = "job"
	CategoryInternship   Category = "internship"
	CategoryTraining     Category = "training"
	CategoryPlacement    Category = "placement"
	CategoryAnnouncement Category = "announcement"
	CategoryGeneral      Category = "general"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryJob,
	CategoryInternship,
	CategoryTraining,
	CategoryPlacement,
	CategoryAnnouncement,
	CategoryGeneral,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	// WordsPerMinute drives the reading time estimate.
	WordsPerMinute = 200
	// ExcerptLimit is the number of characters kept when deriving an excerpt.
	ExcerptLimit = 300
	// ExcerptEllipsis marks a truncated excerpt.
	ExcerptEllipsis = "..."
)

// Attachment describes a file linked from a post.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Post is a single published content item.
type Post struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	Title       string       `gorm:"size:200;not null" json:"title"`
	Content     string       `gorm:"type:text;not null" json:"content,omitempty"`
	Excerpt     string       `gorm:"type:text" json:"excerpt"`
	Author      string       `gorm:"size:64;not null;index" json:"author"`
	AuthorID    string       `gorm:"size:36;index" json:"author_id,omitempty"`
	Category    Category     `gorm:"size:32;not null;index:idx_posts_category_published,priority:1" json:"category"`
	Tags        []string     `gorm:"type:text;serializer:json" json:"tags"`
	Featured    bool         `gorm:"not null;index" json:"featured"`
	Published   bool         `gorm:"not null;index:idx_posts_category_published,priority:2" json:"published"`
	Views       int64        `gorm:"not null;default:0" json:"views"`
	Likes       int64        `gorm:"not null;default:0" json:"likes"`
	ImageURL    string       `gorm:"size:1024" json:"image_url"`
	Attachments []Attachment `gorm:"type:text;serializer:json" json:"attachments"`
	ReadingTime int          `gorm:"not null;default:1" json:"reading_time"`
	SearchText  string       `gorm:"type:text" json:"-"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"index" json:"updated_at"`

	FormattedDate string `gorm:"-" json:"formatted_date"`
}

// PostTag indexes a post under one of its tags so tag filters can use an
// index instead of scanning the serialized tag list.
type PostTag struct {
	PostID string `gorm:"primaryKey;size:36"`
	Tag    string `gorm:"primaryKey;size:64;index"`
}

// BeforeCreate assigns the identifier and normalises empty collections.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Attachments == nil {
		p.Attachments = []Attachment{}
	}
	p.ReadingTime = ReadingTime(p.Content)
	p.RefreshSearchText()
	return nil
}

// RefreshSearchText rebuilds the unescaped plain text that free-text search
// matches against. Stored title and content are HTML-escaped, so searching
// them directly misses words such as "R&D".
func (p *Post) RefreshSearchText() {
	p.SearchText = utils.StripTags(strings.Join([]string{p.Title, p.Excerpt, p.Content}, "\n"))
}

// AfterFind fills fields that are derived on read.
func (p *Post) AfterFind(tx *gorm.DB) error {
	p.fillDerived()
	return nil
}

// AfterCreate fills fields that are derived on read.
func (p *Post) AfterCreate(tx *gorm.DB) error {
	p.fillDerived()
	return nil
}

func (p *Post) fillDerived() {
	if p.Content != "" {
		p.ReadingTime = ReadingTime(p.Content)
	}
	if p.ReadingTime < 1 {
		p.ReadingTime = 1
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Attachments == nil {
		p.Attachments = []Attachment{}
	}
	p.FormattedDate = p.CreatedAt.Format("January 2, 2006")
}

// ReadingTime estimates minutes needed to read content, never less than one.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
