package models

import (
	"encoding/base64"
	"strings"
	"time"
)

// Link - запись о короткой ссылке в хранилище.
// ID совпадает с первичным ключом хранилища.
type Link struct {
	ID          int64     `json:"id" db:"id"`
	ShortName   string    `json:"short_name" db:"short_name"`
	Destination string    `json:"destination" db:"destination"`
	AdminKey    []byte    `json:"-" db:"admin_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Clicks      int64     `json:"clicks" db:"clicks"`
	Phishing    bool      `json:"phishing" db:"phishing"`
}

// EncodedAdminKey возвращает ключ администратора в виде, пригодном для URL
func (l Link) EncodedAdminKey() string {
	return base64.RawURLEncoding.EncodeToString(l.AdminKey)
}

// LinkInfo - ссылка в виде полных адресов для ответа клиенту и логов
type LinkInfo struct {
	ShortURL    string `json:"short_url"`
	Destination string `json:"destination"`
	AdminLink   string `json:"admin_link"`
	DeleteLink  string `json:"delete_link"`
	PhishLink   string `json:"-"`
	Clicks      int64  `json:"clicks"`
}

// NewLinkInfo строит LinkInfo из записи хранилища
func NewLinkInfo(link Link, baseURL, phishingPassword string) LinkInfo {
	base := strings.TrimRight(baseURL, "/")
	key := link.EncodedAdminKey()
	return LinkInfo{
		ShortURL:    base + "/" + link.ShortName,
		Destination: link.Destination,
		AdminLink:   base + "/" + link.ShortName + "/admin/" + key,
		DeleteLink:  base + "/" + link.ShortName + "/delete/" + key,
		PhishLink:   base + "/" + link.ShortName + "/phishing/" + phishingPassword,
		Clicks:      link.Clicks,
	}
}

// CreateLinkRequest - тело запроса на создание ссылки
type CreateLinkRequest struct {
	ShortName   string `json:"short_name"`
	Destination string `json:"destination"`
}

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse - тело ответа с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}
