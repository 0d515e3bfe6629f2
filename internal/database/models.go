package database

import "time"

// UncategorizedCategory is assigned to images saved without a category.
const UncategorizedCategory = "uncategorized"

// ImageRecord is a stored image with its variants and classification.
// Compressed and Thumbnail are base64 data URLs. FileSize is the byte length
// of the decoded Compressed payload.
type ImageRecord struct {
	ID           int64     `json:"id"`
	FileName     string    `json:"fileName"`
	OriginalName string    `json:"originalName"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `json:"mimeType"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags"`
	UploadDate   time.Time `json:"uploadDate"`
	RecordID     *int64    `json:"recordId"`
	Compressed   string    `json:"compressed"`
	Thumbnail    string    `json:"thumbnail"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
}

// HasTag reports whether the record carries tag, ignoring case.
func (r *ImageRecord) HasTag(tag string) bool {
	key := tagKey(tag)
	for _, t := range r.Tags {
		if tagKey(t) == key {
			return true
		}
	}
	return false
}

func (r *ImageRecord) clone() *ImageRecord {
	c := *r
	c.Tags = append(make([]string, 0, len(r.Tags)), r.Tags...)
	if r.RecordID != nil {
		id := *r.RecordID
		c.RecordID = &id
	}
	return &c
}

// ImagePatch is a partial update. Nil fields are left untouched; a non-nil
// empty Tags slice removes every tag.
type ImagePatch struct {
	OriginalName  *string
	Category      *string
	Tags          []string
	RecordID      *int64
	ClearRecordID bool
}

// Category is a single-valued label. Names are not unique.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

// Tag is a multi-valued label. Names are not unique.
type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// Stats summarizes the library.
type Stats struct {
	TotalImages     int     `json:"totalImages"`
	TotalSize       int64   `json:"totalSize"`
	TotalCategories int     `json:"totalCategories"`
	TotalTags       int     `json:"totalTags"`
	AverageSize     float64 `json:"averageSize"`
}

// DefaultCategories are seeded into an empty categories collection.
var DefaultCategories = []Category{
	{Name: "チャート", Description: "株価チャートや技術分析図", Color: "#3B82F6"},
	{Name: "ニュース", Description: "ニュース記事やプレスリリース", Color: "#10B981"},
	{Name: "分析レポート", Description: "投資分析レポートや調査資料", Color: "#F59E0B"},
	{Name: "スクリーンショット", Description: "取引画面やアプリのスクリーンショット", Color: "#8B5CF6"},
	{Name: "その他", Description: "その他の投資関連画像", Color: "#6B7280"},
}
