package scraper

import "strings"

// Strategy одна попытка извлечь значение
type Strategy[T any] func() (T, bool)

// FirstOf возвращает результат первой успешной стратегии
func FirstOf[T any](strategies ...Strategy[T]) (T, bool) {
	for _, s := range strategies {
		if v, ok := s(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// text превращает строковый экстрактор в стратегию: успех = непустая строка
func text(f func() string) Strategy[string] {
	return func() (string, bool) {
		v := strings.TrimSpace(f())
		return v, v != ""
	}
}

// firstText каскад строковых экстракторов
func firstText(fs ...func() string) string {
	strategies := make([]Strategy[string], 0, len(fs))
	for _, f := range fs {
		strategies = append(strategies, text(f))
	}
	v, _ := FirstOf(strategies...)
	return v
}
