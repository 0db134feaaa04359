// Пакет auth — приём идентичности от внешнего IdP.
// IdP выпускает короткоживущий JWT (RS256) и перенаправляет браузер на
// /auth/handoff?token=...; подпись проверяется по JWKS IdP, claims
// превращаются в объект пользователя local-хранилища.
package auth

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/recycleit/receiver-portal/internal/domain/model"
	"github.com/recycleit/receiver-portal/internal/domain/rbac"
)

// ErrInvalidToken — hand-off токен не прошёл проверку.
var ErrInvalidToken = errors.New("невалидный или просроченный hand-off токен")

// handoffClaims — claims hand-off токена.
type handoffClaims struct {
	jwt.RegisteredClaims
	// Role — роль пользователя (receiver, recycler, ...)
	Role string `json:"role"`
	// Name — отображаемое имя
	Name string `json:"name,omitempty"`
	// Email — электронная почта
	Email string `json:"email,omitempty"`
	// Groups — группы IdP, используются, если role не задан
	Groups []string `json:"groups,omitempty"`
}

// HandoffVerifier проверяет hand-off токены по JWKS внешнего IdP.
type HandoffVerifier struct {
	jwks      keyfunc.Keyfunc
	issuer    string
	jwtLeeway time.Duration
	logger    *slog.Logger
}

// NewHandoffVerifier создаёт проверку hand-off токенов с JWKS из IdP.
// caCertPath — опциональный путь к CA-сертификату для TLS.
// issuer — ожидаемый issuer (пусто — не проверяется).
// refreshInterval — интервал обновления JWKS-ключей.
func NewHandoffVerifier(
	jwksURL string,
	caCertPath string,
	issuer string,
	clientTimeout time.Duration,
	refreshInterval time.Duration,
	jwtLeeway time.Duration,
	logger *slog.Logger,
) (*HandoffVerifier, error) {
	httpClient := &http.Client{Timeout: clientTimeout}
	if caCertPath != "" {
		var err error
		httpClient, err = httpClientWithCA(caCertPath, clientTimeout)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата %s: %w", caCertPath, err)
		}
	}

	// NoErrorReturnFirstHTTPReq — стартуем даже если IdP ещё недоступен.
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    httpClient,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return NewHandoffVerifierWithKeyfunc(k, issuer, jwtLeeway, logger), nil
}

// NewHandoffVerifierWithKeyfunc создаёт проверку с предоставленной keyfunc.
// Используется в тестах для подстановки mock JWKS.
func NewHandoffVerifierWithKeyfunc(kf keyfunc.Keyfunc, issuer string, jwtLeeway time.Duration, logger *slog.Logger) *HandoffVerifier {
	return &HandoffVerifier{
		jwks:      kf,
		issuer:    issuer,
		jwtLeeway: jwtLeeway,
		logger:    logger.With(slog.String("component", "handoff")),
	}
}

// httpClientWithCA создаёт HTTP-клиент с кастомным CA-сертификатом.
func httpClientWithCA(caCertPath string, timeout time.Duration) (*http.Client, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, err
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs: caCertPool,
			},
		},
	}, nil
}

// Verify проверяет подпись и срок действия токена и возвращает объект пользователя.
// Обязательны claims sub и role (или группа IdP, соответствующая роли).
func (v *HandoffVerifier) Verify(ctx context.Context, tokenString string) (*model.User, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &handoffClaims{}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.jwtLeeway),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.KeyfuncCtx(ctx), parserOpts...)
	if err != nil {
		v.logger.Debug("Проверка hand-off токена не пройдена",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: отсутствует sub", ErrInvalidToken)
	}
	role := rbac.ResolveRole(claims.Role, claims.Groups)
	if role == "" {
		return nil, fmt.Errorf("%w: отсутствует role", ErrInvalidToken)
	}

	return &model.User{
		ID:    subject,
		Role:  role,
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}
