package service

import (
	"errors"
	"strings"

	"github.com/tempizhere/linkward/internal/policy"
)

var (
	ErrLinkNotFound        = errors.New("link not found")
	ErrPhishingLink        = errors.New("phishing link reached")
	ErrInvalidName         = errors.New("invalid shortcut name")
	ErrInvalidDestination  = errors.New("invalid destination URL")
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrSelfLink            = errors.New("shortening loop forbidden")
	ErrLinkExists          = errors.New("shortcut already exists")
	ErrInvalidKey          = errors.New("invalid link admin key")
	ErrManagingPhishing    = errors.New("phishing links cannot be managed")
	ErrDeletingPhishing    = errors.New("phishing links cannot be deleted")
	ErrBadAdminPassword    = errors.New("invalid server admin password")
	ErrSessionExpired      = errors.New("session expired")
	ErrSessionMissing      = errors.New("session cookie missing or invalid")
	ErrStorage             = errors.New("storage failure")
)

// ErrorKind классифицирует ошибку для ответа клиенту и журнала.
// Префикс значения задаёт уровень: info, notice, warn или crit.
type ErrorKind string

const (
	InfoLinkNotFound          ErrorKind = "info_link_not_found"
	InfoPhishingLinkReached   ErrorKind = "info_phishing_link_reached"
	InfoSelflinkForbidden     ErrorKind = "info_selflink_forbidden"
	NoticeInvalidName         ErrorKind = "notice_invalid_name"
	NoticeInvalidDestination  ErrorKind = "notice_invalid_destination"
	NoticeUnsupportedProtocol ErrorKind = "notice_unsupported_protocol"
	NoticeSessionExpired      ErrorKind = "notice_session_expired"
	NoticeCookieParseFail     ErrorKind = "notice_cookie_parse_fail"
	NoticeLinkAlreadyExists   ErrorKind = "notice_link_already_exists"
	NoticeInvalidKey          ErrorKind = "notice_invalid_key"
	NoticeNotManagingPhishing ErrorKind = "notice_not_managing_phishing"
	NoticeNotDeletingPhishing ErrorKind = "notice_not_deleting_phishing"
	WarnBadServerAdminKey     ErrorKind = "warn_bad_server_admin_key"
	WarnBlockedName           ErrorKind = "warn_blocked_name"
	WarnBlockedLinkShortener  ErrorKind = "warn_blocked_link_shortener"
	WarnBlockedLinkFreehost   ErrorKind = "warn_blocked_link_freehost"
	WarnBlockedLinkSpam       ErrorKind = "warn_blocked_link_spam"
	CritDbFail                ErrorKind = "crit_db_fail"
	CritUnknown               ErrorKind = "crit_unknown"
)

// Level возвращает уровень ошибки: info, notice, warn или crit
func (k ErrorKind) Level() string {
	level, _, _ := strings.Cut(string(k), "_")
	return level
}

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrLinkNotFound, InfoLinkNotFound},
	{ErrPhishingLink, InfoPhishingLinkReached},
	{ErrSelfLink, InfoSelflinkForbidden},
	{ErrInvalidName, NoticeInvalidName},
	{ErrInvalidDestination, NoticeInvalidDestination},
	{ErrUnsupportedProtocol, NoticeUnsupportedProtocol},
	{ErrSessionExpired, NoticeSessionExpired},
	{ErrSessionMissing, NoticeCookieParseFail},
	{ErrLinkExists, NoticeLinkAlreadyExists},
	{ErrInvalidKey, NoticeInvalidKey},
	{ErrManagingPhishing, NoticeNotManagingPhishing},
	{ErrDeletingPhishing, NoticeNotDeletingPhishing},
	{ErrBadAdminPassword, WarnBadServerAdminKey},
	{ErrStorage, CritDbFail},
}

// Kind определяет ErrorKind для любой ошибки сервиса
func Kind(err error) ErrorKind {
	var violation *policy.Violation
	if errors.As(err, &violation) {
		switch violation.Category {
		case policy.BlockedName:
			return WarnBlockedName
		case policy.Shortener:
			return WarnBlockedLinkShortener
		case policy.Freehost:
			return WarnBlockedLinkFreehost
		default:
			return WarnBlockedLinkSpam
		}
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return CritUnknown
}
