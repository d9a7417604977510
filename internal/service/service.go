// Package service реализует создание, разрешение и администрирование коротких ссылок
// с проверками политики, резервным кешем и отслеживанием подозрительных переходов.
package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tempizhere/linkward/internal/cache"
	"github.com/tempizhere/linkward/internal/metrics"
	"github.com/tempizhere/linkward/internal/models"
	"github.com/tempizhere/linkward/internal/policy"
	"github.com/tempizhere/linkward/internal/repository"
	"github.com/tempizhere/linkward/internal/watcher"
	"go.uber.org/zap"
)

const (
	maxNameLength        = 50
	maxDestinationLength = 4096
	randomNameBytes      = 6
	adminKeyBytes        = 24
)

var nameRegexp = regexp.MustCompile(`^[^,*';?:@=&.<>#%/\\\[\]{}"|^~ ]{0,80}$`)

// AllowedProtocols перечисляет схемы, на которые можно создать ссылку
var AllowedProtocols = []string{
	"http", "https", "dat", "dweb", "ipfs", "ipns", "ssb", "gopher", "xmpp", "matrix",
	"irc", "news", "svn", "scp", "ftp", "ftps", "ftpes", "magnet", "gemini", "nntp",
	"mailto", "ssh", "webcal", "feed", "rss", "rtsp", "file", "telnet", "realaudio",
}

// Options задаёт параметры поведения сервиса
type Options struct {
	BaseURL          string
	PhishingPassword string
	// VerboseConsole включает журнал созданных ссылок
	VerboseConsole bool
	// VerboseSuspicious включает отслеживание всплесков переходов
	VerboseSuspicious bool
}

// Option настраивает Service
type Option func(*Service)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service реализует логику работы с короткими ссылками
type Service struct {
	repo     repository.Repository
	policy   *policy.Engine
	cache    *cache.LinkCache
	watcher  *watcher.Watcher
	opts     Options
	selfHost string
	logger   *zap.Logger
	now      func() time.Time
}

// NewService создаёт новый экземпляр Service
func NewService(
	repo repository.Repository,
	engine *policy.Engine,
	linkCache *cache.LinkCache,
	visitWatcher *watcher.Watcher,
	opts Options,
	logger *zap.Logger,
	options ...Option,
) *Service {
	s := &Service{
		repo:     repo,
		policy:   engine,
		cache:    linkCache,
		watcher:  visitWatcher,
		opts:     opts,
		selfHost: instanceHost(opts.BaseURL),
		logger:   logger,
		now:      time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// instanceHost извлекает имя хоста экземпляра из базового URL
func instanceHost(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		u, err = url.Parse("http://" + baseURL)
		if err != nil {
			return ""
		}
	}
	return strings.ToLower(u.Hostname())
}

// LinkInfo строит полные адреса ссылки для ответа клиенту
func (s *Service) LinkInfo(link models.Link) models.LinkInfo {
	return models.NewLinkInfo(link, s.opts.BaseURL, s.opts.PhishingPassword)
}

// AdminURL возвращает адрес страницы управления ссылкой
func (s *Service) AdminURL(name, key string) string {
	return strings.TrimRight(s.opts.BaseURL, "/") + "/" + name + "/admin/" + key
}

// GenerateName генерирует случайное имя ярлыка
func (s *Service) GenerateName() (string, error) {
	b, err := randomBytes(randomNameBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// validateName проверяет пользовательское имя ярлыка
func validateName(name string) error {
	if len(name) > maxNameLength || !nameRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// parseDestination разбирает и проверяет адрес назначения
func parseDestination(raw string) (*url.URL, error) {
	if len(raw) > maxDestinationLength {
		return nil, fmt.Errorf("%w: longer than %d bytes", ErrInvalidDestination, maxDestinationLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDestination, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme", ErrInvalidDestination)
	}
	if !slices.Contains(AllowedProtocols, strings.ToLower(u.Scheme)) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidDestination)
	}
	return u, nil
}

// checkPolicy выполняет проверки самоссылки и чёрных списков
func (s *Service) checkPolicy(name string, u *url.URL) error {
	if strings.EqualFold(u.Hostname(), s.selfHost) {
		return fmt.Errorf("%w: %s", ErrSelfLink, u)
	}
	if err := s.policy.CheckName(name); err != nil {
		s.countViolation(err)
		return err
	}
	if err := s.policy.CheckDestination(u); err != nil {
		s.countViolation(err)
		return err
	}
	return nil
}

func (s *Service) countViolation(err error) {
	var violation *policy.Violation
	if errors.As(err, &violation) {
		metrics.PolicyViolations.WithLabelValues(string(violation.Category)).Inc()
		s.logger.Info("Policy violation", zap.String("category", string(violation.Category)), zap.Error(err))
	}
}

// CheckDestination проверяет имя и адрес без создания ссылки
func (s *Service) CheckDestination(name, destination string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	u, err := parseDestination(strings.TrimSpace(destination))
	if err != nil {
		return err
	}
	return s.checkPolicy(name, u)
}

// CreateLink создаёт короткую ссылку. Пустое имя заменяется случайным.
func (s *Service) CreateLink(ctx context.Context, name, destination string) (models.LinkInfo, error) {
	name = strings.TrimSpace(name)
	destination = strings.TrimSpace(destination)

	if err := validateName(name); err != nil {
		return models.LinkInfo{}, err
	}
	u, err := parseDestination(destination)
	if err != nil {
		return models.LinkInfo{}, err
	}
	if err := s.checkPolicy(name, u); err != nil {
		return models.LinkInfo{}, err
	}

	if name == "" {
		if name, err = s.GenerateName(); err != nil {
			return models.LinkInfo{}, err
		}
	}
	key, err := randomBytes(adminKeyBytes)
	if err != nil {
		return models.LinkInfo{}, err
	}

	link, err := s.repo.InsertIfNotExists(ctx, models.Link{
		ShortName:   name,
		Destination: destination,
		AdminKey:    key,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrLinkExists) {
			return models.LinkInfo{}, fmt.Errorf("%w: %s", ErrLinkExists, name)
		}
		return models.LinkInfo{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.cache.Save(link)

	info := s.LinkInfo(link)
	if s.opts.VerboseConsole && !s.policy.IsAllowlisted(link.ShortName, link.Destination) {
		s.logger.Info("New link created",
			zap.String("link", info.ShortURL),
			zap.String("redirects_to", info.Destination),
			zap.String("admin_link", info.AdminLink),
			zap.String("flag_as_phishing", info.PhishLink),
		)
	}
	return info, nil
}

// Resolve возвращает ссылку для перехода и увеличивает счётчик.
// Если хранилище недоступно, ссылка берётся из кеша.
func (s *Service) Resolve(ctx context.Context, name, visitor string) (models.Link, error) {
	link, err := s.repo.GetAndIncrement(ctx, name)
	switch {
	case err == nil:
		s.cache.Save(link)
	case errors.Is(err, repository.ErrNotFound):
		return models.Link{}, fmt.Errorf("%w: %s", ErrLinkNotFound, name)
	case errors.Is(err, repository.ErrUnavailable):
		cached, ok := s.cache.Check(name)
		if !ok {
			return models.Link{}, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		s.logger.Warn("Storage unavailable, link served from cache", zap.String("short_name", name), zap.Error(err))
		link = cached
	default:
		return models.Link{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if link.Phishing {
		return models.Link{}, fmt.Errorf("%w: %s", ErrPhishingLink, link.ShortName)
	}
	if s.opts.VerboseSuspicious && !s.policy.IsAllowlisted(link.ShortName, link.Destination) {
		s.watcher.Record(link.ShortName, s.LinkInfo(link), visitor, s.now())
	}
	return link, nil
}

// getWithKey возвращает ссылку, если ключ администратора совпадает
func (s *Service) getWithKey(ctx context.Context, name, key string) (models.Link, error) {
	link, err := s.repo.Get(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Link{}, fmt.Errorf("%w: %s", ErrLinkNotFound, name)
		}
		return models.Link{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if subtle.ConstantTimeCompare([]byte(link.EncodedAdminKey()), []byte(key)) != 1 {
		return models.Link{}, ErrInvalidKey
	}
	return link, nil
}

// Admin возвращает данные ссылки для страницы администрирования
func (s *Service) Admin(ctx context.Context, name, key string) (models.LinkInfo, error) {
	link, err := s.getWithKey(ctx, name, key)
	if err != nil {
		return models.LinkInfo{}, err
	}
	if link.Phishing {
		return models.LinkInfo{}, ErrManagingPhishing
	}
	return s.LinkInfo(link), nil
}

// Delete удаляет ссылку по ключу администратора
func (s *Service) Delete(ctx context.Context, name, key string) error {
	link, err := s.getWithKey(ctx, name, key)
	if err != nil {
		return err
	}
	if link.Phishing {
		return ErrDeletingPhishing
	}
	if err := s.repo.Delete(ctx, link.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrLinkNotFound, name)
		}
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.cache.Forget(link.ShortName)
	return nil
}

// FlagPhishing помечает ссылку как фишинговую по паролю администратора сервера
func (s *Service) FlagPhishing(ctx context.Context, name, password string) error {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.PhishingPassword)) != 1 {
		s.logger.Warn("Tried to flag a link as phishing with a wrong password", zap.String("short_name", name))
		return ErrBadAdminPassword
	}
	rows, err := s.repo.FlagPhishing(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrLinkNotFound, name)
	}
	s.refreshCached(ctx, name)
	s.logger.Info("Link flagged as phishing", zap.String("short_name", name))
	return nil
}

// refreshCached переносит в кеш текущее состояние ссылки из хранилища.
// Если прочитать ссылку не удалось, запись удаляется из кеша.
func (s *Service) refreshCached(ctx context.Context, name string) {
	link, err := s.repo.Get(ctx, name)
	if err != nil {
		s.cache.Forget(name)
		return
	}
	s.cache.Replace(link)
}
