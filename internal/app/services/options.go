package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"stampy-lens/internal/app/models"
	"stampy-lens/internal/app/repositories"
)

const (
	optionAPIEndpoint = "apiEndpoint"
	optionInstallID   = "installId"
)

var ErrInvalidEndpoint = errors.New("api endpoint must be an absolute http(s) url")

type IOptions interface {
	GetOptions(ctx context.Context) (models.Options, error)
	SaveOptions(ctx context.Context, opts models.Options) (models.Options, error)
	// APIEndpoint 当前生效的分析服务地址，读取失败时返回默认值
	APIEndpoint(ctx context.Context) string
	// InstallID 稳定的安装标识，作为 sessionId 发送
	InstallID(ctx context.Context) (string, error)
}

type OptionsService struct {
	repo            repositories.OptionsRepository
	defaultEndpoint string
}

func NewOptionsService(repo repositories.OptionsRepository, defaultEndpoint string) *OptionsService {
	return &OptionsService{repo: repo, defaultEndpoint: defaultEndpoint}
}

func (s *OptionsService) GetOptions(ctx context.Context) (models.Options, error) {
	endpoint, err := s.repo.Get(ctx, optionAPIEndpoint)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Options{APIEndpoint: s.defaultEndpoint}, nil
	}
	if err != nil {
		return models.Options{}, fmt.Errorf("get options: %w", err)
	}
	return models.Options{APIEndpoint: endpoint}, nil
}

// SaveOptions 保存选项，空地址恢复为默认地址
func (s *OptionsService) SaveOptions(ctx context.Context, opts models.Options) (models.Options, error) {
	endpoint := strings.TrimSpace(opts.APIEndpoint)
	if endpoint == "" {
		endpoint = s.defaultEndpoint
	}
	if err := validateEndpoint(endpoint); err != nil {
		return models.Options{}, err
	}
	if err := s.repo.Set(ctx, optionAPIEndpoint, endpoint); err != nil {
		return models.Options{}, fmt.Errorf("save options: %w", err)
	}
	return models.Options{APIEndpoint: endpoint}, nil
}

func (s *OptionsService) APIEndpoint(ctx context.Context) string {
	opts, err := s.GetOptions(ctx)
	if err != nil {
		log.Warnf("read api endpoint fail, using default: %s", err.Error())
		return s.defaultEndpoint
	}
	return opts.APIEndpoint
}

func (s *OptionsService) InstallID(ctx context.Context) (string, error) {
	id, err := s.repo.SetIfAbsent(ctx, optionInstallID, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("get install id: %w", err)
	}
	return id, nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidEndpoint
	}
	return nil
}
