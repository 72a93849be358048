package scraper

import "bwf-news-parser/internal/normalize"

// Candidate ссылка на статью из листинга плюс запасные данные из карточки
type Candidate struct {
	Href            string
	TitleFallback   string
	ImgFallback     string
	PreviewFallback string
	DateFallback    string
	SequenceNum     int
}

// Article данные, извлечённые со страницы статьи
type Article struct {
	Title   string
	Image   string
	Images  []string // все кандидаты по убыванию веса
	Preview string
	Date    string // ISO-8601 или исходная строка
}

type Selectors struct {
	UploadPathSegment   string   `yaml:"upload_path_segment"`
	ContentImages       []string `yaml:"content_images"`
	ContentParagraphs   []string `yaml:"content_paragraphs"`
	ContentText         []string `yaml:"content_text"`
	GenericImageMarkers []string `yaml:"generic_image_markers"`
	ActionKeywords      []string `yaml:"action_keywords"`
	PortraitKeywords    []string `yaml:"portrait_keywords"`
	BylineMarkers       []string `yaml:"byline_markers"`
	MaxPreviewChars     int      `yaml:"max_preview_chars"`
	MinDescriptionChars int      `yaml:"min_description_chars"`
}

// DefaultSelectors селекторы под WordPress-сайты BWF
func DefaultSelectors() *Selectors {
	return &Selectors{
		UploadPathSegment: "/wp-content/uploads/",
		ContentImages: []string{
			"article .entry-content img",
			"article .post-content img",
			".single-post .entry-content img",
			".entry-content img",
			".post-content img",
			".article-content img",
			".news-detail img",
			".content-area img",
			"article img",
			"main img",
			"img",
		},
		ContentParagraphs: []string{
			"article .entry-content p",
			".entry-content p",
			".post-content p",
			".article-content p",
			".news-detail p",
			"article p",
			"main p",
		},
		ContentText: []string{
			"article .entry-content",
			".entry-content",
			".post-content",
			".article-content",
			"article",
			"main",
		},
		GenericImageMarkers: []string{
			"logo", "favicon", "placeholder", "icon", "banner", "header",
			"featured", "sprite", "avatar", "default-image", "no-image",
			"bwf-world-tour-white", "hsbc-bwf-world-tour", "bwf-tournament-software",
		},
		ActionKeywords: []string{
			"action", "match", "final", "semi", "celebrat", "trophy", "podium",
			"medal", "champion", "winner", "smash", "rally", "court", "victory",
		},
		PortraitKeywords: []string{"portrait", "profile", "headshot", "mugshot", "banner"},
		BylineMarkers:    []string{"by ", "written by", "words:", "photo:", "photos:", "report:"},
		MaxPreviewChars:     normalize.MaxPreviewChars,
		MinDescriptionChars: 12,
	}
}

// withDefaults дополняет пустые поля значениями по умолчанию
func (s *Selectors) withDefaults() *Selectors {
	def := DefaultSelectors()
	if s == nil {
		return def
	}
	out := *s
	if out.UploadPathSegment == "" {
		out.UploadPathSegment = def.UploadPathSegment
	}
	if len(out.ContentImages) == 0 {
		out.ContentImages = def.ContentImages
	}
	if len(out.ContentParagraphs) == 0 {
		out.ContentParagraphs = def.ContentParagraphs
	}
	if len(out.ContentText) == 0 {
		out.ContentText = def.ContentText
	}
	if len(out.GenericImageMarkers) == 0 {
		out.GenericImageMarkers = def.GenericImageMarkers
	}
	if len(out.ActionKeywords) == 0 {
		out.ActionKeywords = def.ActionKeywords
	}
	if len(out.PortraitKeywords) == 0 {
		out.PortraitKeywords = def.PortraitKeywords
	}
	if len(out.BylineMarkers) == 0 {
		out.BylineMarkers = def.BylineMarkers
	}
	if out.MaxPreviewChars <= 0 {
		out.MaxPreviewChars = def.MaxPreviewChars
	}
	if out.MinDescriptionChars <= 0 {
		out.MinDescriptionChars = def.MinDescriptionChars
	}
	return &out
}
