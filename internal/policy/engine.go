// Package policy классифицирует имена ярлыков и адреса назначения
// по белым и чёрным спискам регулярных выражений.
//
// Списки загружаются один раз при старте и дальше не изменяются, поэтому
// Engine можно использовать из любого числа горутин без блокировок.
// Порядок записей сохраняется: выигрывает первое совпадение.
package policy

import (
	"net/url"
	"strings"
)

// Engine проверяет имена и адреса по спискам
type Engine struct {
	list *List
}

// NewEngine создаёт движок поверх загруженного списка
func NewEngine(list *List) *Engine {
	if list == nil {
		list = &List{}
	}
	return &Engine{list: list}
}

// IsAllowlisted сообщает, освобождена ли ссылка от подробного логирования
// и отслеживания подозрительной активности. Ничего не блокирует.
func (e *Engine) IsAllowlisted(name, destination string) bool {
	destination = strings.ToLower(destination)
	for _, entry := range e.list.URLs.Allowlist {
		if entry.Pattern.MatchString(destination) {
			return true
		}
	}
	name = strings.ToLower(name)
	for _, entry := range e.list.Names.Allowlist {
		if entry.Pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// CheckName возвращает *Violation, если имя попало в чёрный список
func (e *Engine) CheckName(name string) error {
	lower := strings.ToLower(name)
	for _, entry := range e.list.Names.Blocklist {
		if entry.Pattern.MatchString(lower) {
			return &Violation{Category: BlockedName, Value: name}
		}
	}
	return nil
}

// CheckDestination возвращает *Violation для первой записи чёрного списка,
// совпавшей с нужной частью адреса. Записи, чья часть в адресе отсутствует,
// пропускаются.
func (e *Engine) CheckDestination(u *url.URL) error {
	if u == nil {
		return nil
	}
	for _, entry := range e.list.URLs.Blocklist {
		field := entry.Field()
		value, ok := Component(u, field)
		if !ok {
			continue
		}
		if entry.Pattern.MatchString(strings.ToLower(value)) {
			return &Violation{Category: entry.Category, Field: field, Value: u.String()}
		}
	}
	return nil
}

// Component извлекает часть адреса. Второе значение false означает,
// что части в адресе нет.
func Component(u *url.URL, field MatchField) (string, bool) {
	switch field {
	case FullURI:
		return u.String(), true
	case Host:
		host := u.Hostname()
		return host, host != ""
	case Port:
		port := u.Port()
		return port, port != ""
	case Authority:
		if u.Host == "" {
			return "", false
		}
		if u.User != nil {
			return u.User.String() + "@" + u.Host, true
		}
		return u.Host, true
	case Path:
		path := u.EscapedPath()
		if path == "" && u.Host != "" {
			path = "/"
		}
		return path, true
	case Query:
		if u.RawQuery == "" && !u.ForceQuery {
			return "", false
		}
		return u.RawQuery, true
	default:
		return "", false
	}
}
