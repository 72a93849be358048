package override

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"bwf-news-parser/internal/news"
)

// Table ручные замены картинок: по точному href и по подстроке заголовка
type Table struct {
	ByHref        map[string]string `json:"by_href"`
	ByTitleSubstr map[string]string `json:"by_title_substr"`

	titleKeys []string
}

// Load читает таблицу из JSON. Отсутствующий или битый файл даёт пустую
// таблицу и ошибку, которую достаточно залогировать.
func Load(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return &Table{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &Table{}, fmt.Errorf("failed to read overrides: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return &Table{}, fmt.Errorf("failed to parse overrides: %w", err)
	}
	t.prepare()
	return &t, nil
}

func (t *Table) prepare() {
	t.titleKeys = sortedKeys(t.ByTitleSubstr)
}

// sortedKeys ключи по алфавиту, чтобы совпадение по заголовку было детерминированным
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		if strings.TrimSpace(key) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len число правил
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ByHref) + len(t.ByTitleSubstr)
}

// Lookup точное совпадение href важнее совпадения по заголовку
func (t *Table) Lookup(href, title string) (string, bool) {
	if t == nil {
		return "", false
	}

	if img, ok := t.ByHref[href]; ok && strings.TrimSpace(img) != "" {
		return strings.TrimSpace(img), true
	}

	keys := t.titleKeys
	if keys == nil {
		keys = sortedKeys(t.ByTitleSubstr)
	}
	lowerTitle := strings.ToLower(title)
	for _, key := range keys {
		img := strings.TrimSpace(t.ByTitleSubstr[key])
		if img != "" && strings.Contains(lowerTitle, strings.ToLower(key)) {
			return img, true
		}
	}
	return "", false
}

// Apply подменяет img, если есть правило
func (t *Table) Apply(item news.Item) (news.Item, bool) {
	img, ok := t.Lookup(item.Href, item.Title)
	if !ok {
		return item, false
	}
	item.Img = img
	return item, true
}
