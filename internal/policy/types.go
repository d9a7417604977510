package policy

import (
	"fmt"
	"regexp"
)

// Category определяет категорию записи чёрного списка
type Category string

const (
	// BlockedName - запрещённое имя ярлыка
	BlockedName Category = "blocked_name"
	// Shortener - другой сервис сокращения ссылок
	Shortener Category = "shortener"
	// Freehost - бесплатный хостинг, часто используемый для фишинга
	Freehost Category = "freehost"
	// Spam - спам-ресурс
	Spam Category = "spam"
)

// UnmarshalText разбирает категорию URL-записи из файла списков
func (c *Category) UnmarshalText(text []byte) error {
	switch v := Category(text); v {
	case Shortener, Freehost, Spam:
		*c = v
		return nil
	default:
		return fmt.Errorf("invalid blocklist category: %q", string(text))
	}
}

// MatchField определяет, с какой частью URL сравнивается шаблон
type MatchField string

const (
	FullURI   MatchField = "full-uri"
	Host      MatchField = "host"
	Port      MatchField = "port"
	Authority MatchField = "authority"
	Path      MatchField = "path"
	Query     MatchField = "query"
)

// UnmarshalText разбирает поле сопоставления из файла списков
func (f *MatchField) UnmarshalText(text []byte) error {
	switch v := MatchField(text); v {
	case FullURI, Host, Port, Authority, Path, Query:
		*f = v
		return nil
	default:
		return fmt.Errorf("invalid blocklist matching: %q", string(text))
	}
}

// Pattern - скомпилированное регулярное выражение из файла списков
type Pattern struct {
	re *regexp.Regexp
}

// UnmarshalText компилирует регулярное выражение
func (p *Pattern) UnmarshalText(text []byte) error {
	re, err := regexp.Compile(string(text))
	if err != nil {
		return fmt.Errorf("failed to compile the regex %s: %w", string(text), err)
	}
	p.re = re
	return nil
}

// MatchString проверяет вхождение шаблона в строку
func (p Pattern) MatchString(s string) bool {
	return p.re != nil && p.re.MatchString(s)
}

// String возвращает исходный текст шаблона
func (p Pattern) String() string {
	if p.re == nil {
		return ""
	}
	return p.re.String()
}

// AllowEntry - запись белого списка
type AllowEntry struct {
	Pattern Pattern `toml:"pattern"`
}

// NameBlockEntry - запись чёрного списка имён
type NameBlockEntry struct {
	Pattern Pattern `toml:"pattern"`
}

// URLBlockEntry - запись чёрного списка адресов назначения.
// Matching == nil означает сопоставление по хосту.
type URLBlockEntry struct {
	Pattern  Pattern     `toml:"pattern"`
	Category Category    `toml:"category"`
	Matching *MatchField `toml:"matching"`
}

// Field возвращает поле сопоставления с учётом значения по умолчанию
func (e URLBlockEntry) Field() MatchField {
	if e.Matching == nil {
		return Host
	}
	return *e.Matching
}

// NameLists содержит списки для имён ярлыков
type NameLists struct {
	Allowlist []AllowEntry     `toml:"allowlist"`
	Blocklist []NameBlockEntry `toml:"blocklist"`
}

// URLLists содержит списки для адресов назначения
type URLLists struct {
	Allowlist []AllowEntry    `toml:"allowlist"`
	Blocklist []URLBlockEntry `toml:"blocklist"`
}

// List - неизменяемый набор списков, загружаемый один раз при старте
type List struct {
	Names NameLists `toml:"names"`
	URLs  URLLists  `toml:"urls"`
}

// Violation описывает срабатывание чёрного списка
type Violation struct {
	Category Category
	// Field заполняется только для адресов назначения
	Field MatchField
	Value string
}

// Error реализует интерфейс error
func (v *Violation) Error() string {
	if v.Category == BlockedName {
		return "shortcut name blocklisted: " + v.Value
	}
	return fmt.Sprintf("URL blocklisted [%s]: %s", v.Field, v.Value)
}
