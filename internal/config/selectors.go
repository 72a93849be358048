package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"bwf-news-parser/internal/scraper"
)

// LoadSelectors загружает селекторы из YAML файла поверх значений по умолчанию
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	selectors := scraper.DefaultSelectors()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(selectors); err != nil {
		return nil, err
	}

	return selectors, nil
}

// Selectors селекторы из selectors_file; без файла встроенные.
// Относительный путь ищется как есть, затем в configs/.
func (c *Config) Selectors() (*scraper.Selectors, error) {
	var sel *scraper.Selectors
	if c.SelectorsFile == "" {
		sel = scraper.DefaultSelectors()
	} else {
		filePath := c.SelectorsFile
		if !filepath.IsAbs(filePath) {
			if _, err := os.Stat(filePath); err != nil {
				filePath = filepath.Join("configs", filePath)
			}
		}

		loaded, err := LoadSelectors(filePath)
		if err != nil {
			return nil, err
		}
		sel = loaded
	}

	if c.Normalize.MaxPreviewChars > 0 {
		sel.MaxPreviewChars = c.Normalize.MaxPreviewChars
	}
	return sel, nil
}

// validateSelectors проверяет минимальный набор селекторов
func validateSelectors(s *scraper.Selectors) error {
	if strings.TrimSpace(s.UploadPathSegment) == "" {
		return fmt.Errorf("upload_path_segment is required")
	}
	if len(s.ContentImages) == 0 {
		return fmt.Errorf("content_images is required")
	}
	if len(s.ContentParagraphs) == 0 {
		return fmt.Errorf("content_paragraphs is required")
	}
	if len(s.GenericImageMarkers) == 0 {
		return fmt.Errorf("generic_image_markers is required")
	}
	if s.MaxPreviewChars < 0 {
		return fmt.Errorf("max_preview_chars must be >= 0")
	}
	return nil
}
