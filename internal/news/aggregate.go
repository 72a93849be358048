package news

import (
	"sort"
	"time"
)

// Aggregate склеивает результаты страниц (в порядке приоритета) со старым списком.
// Если свежих новостей нет, старый список возвращается как есть.
func Aggregate(perPage [][]Item, previous []Item, limit int) []Item {
	var fresh []Item
	for _, page := range perPage {
		fresh = append(fresh, page...)
	}
	fresh = Dedup(fresh)

	if len(fresh) == 0 && len(previous) > 0 {
		return previous
	}
	return Merge(fresh, previous, limit)
}

// Merge свежие впереди старых, дедупликация по href, сортировка по дате, обрезка до limit
func Merge(fresh, previous []Item, limit int) []Item {
	merged := make([]Item, 0, len(fresh)+len(previous))
	merged = append(merged, fresh...)
	merged = append(merged, previous...)
	merged = Dedup(merged)

	SortByDate(merged)

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// Dedup оставляет первое вхождение каждого href, порядок сохраняется.
// Новости без заголовка или ссылки отбрасываются.
func Dedup(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if !it.Valid() || seen[it.Href] {
			continue
		}
		seen[it.Href] = true
		out = append(out, it)
	}
	return out
}

// SortByDate стабильно по убыванию даты; без даты в конец
func SortByDate(items []Item) {
	keys := make([]time.Time, len(items))
	for i, it := range items {
		if t, ok := ParseDate(it.Date); ok {
			keys[i] = t
		}
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].After(keys[idx[b]])
	})

	sorted := make([]Item, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
}
