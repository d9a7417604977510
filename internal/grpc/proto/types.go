// Package proto содержит определения типов для gRPC сервиса коротких ссылок
package proto

// CreateLinkRequest представляет запрос на создание короткой ссылки
type CreateLinkRequest struct {
	ShortName   string `json:"short_name"`
	Destination string `json:"destination"`
}

// CreateLinkResponse представляет ответ с созданной ссылкой
type CreateLinkResponse struct {
	ShortURL    string `json:"short_url"`
	Destination string `json:"destination"`
	AdminLink   string `json:"admin_link"`
	DeleteLink  string `json:"delete_link"`
}

// ResolveLinkRequest представляет запрос на переход по ссылке
type ResolveLinkRequest struct {
	ShortName string `json:"short_name"`
}

// ResolveLinkResponse представляет ответ с адресом назначения
type ResolveLinkResponse struct {
	Destination string `json:"destination"`
}

// CheckDestinationRequest представляет запрос на проверку без создания ссылки
type CheckDestinationRequest struct {
	ShortName   string `json:"short_name"`
	Destination string `json:"destination"`
}

// CheckDestinationResponse представляет результат проверки
type CheckDestinationResponse struct {
	Allowed bool   `json:"allowed"`
	Kind    string `json:"kind,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// FlagPhishingRequest представляет запрос на пометку ссылки как фишинговой
type FlagPhishingRequest struct {
	ShortName string `json:"short_name"`
	Password  string `json:"password"`
}

// FlagPhishingResponse представляет ответ на пометку ссылки
type FlagPhishingResponse struct {
	Flagged bool `json:"flagged"`
}

// PingRequest представляет запрос проверки состояния
type PingRequest struct{}

// PingResponse представляет ответ проверки состояния
type PingResponse struct {
	Status string `json:"status"`
}
