package policy

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Load читает и разбирает файл списков
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy list %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает содержимое файла списков в формате TOML.
// Все шаблоны компилируются сразу, ошибка в любом из них делает список недействительным.
func Parse(data []byte) (*List, error) {
	var list List
	md, err := toml.Decode(string(data), &list)
	if err != nil {
		return nil, fmt.Errorf("failed to decode policy list: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in policy list: %v", undecoded)
	}
	if err := list.validate(); err != nil {
		return nil, err
	}
	return &list, nil
}

// validate проверяет обязательные поля записей
func (l *List) validate() error {
	for i, e := range l.Names.Allowlist {
		if e.Pattern.re == nil {
			return fmt.Errorf("names.allowlist[%d]: missing pattern", i)
		}
	}
	for i, e := range l.Names.Blocklist {
		if e.Pattern.re == nil {
			return fmt.Errorf("names.blocklist[%d]: missing pattern", i)
		}
	}
	for i, e := range l.URLs.Allowlist {
		if e.Pattern.re == nil {
			return fmt.Errorf("urls.allowlist[%d]: missing pattern", i)
		}
	}
	for i, e := range l.URLs.Blocklist {
		if e.Pattern.re == nil {
			return fmt.Errorf("urls.blocklist[%d]: missing pattern", i)
		}
		if e.Category == "" {
			return fmt.Errorf("urls.blocklist[%d]: missing category", i)
		}
	}
	return nil
}
