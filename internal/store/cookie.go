package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Префикс имён cookie local-хранилища: rp_local_<key>.
const localCookiePrefix = "rp_local_"

// MaxCookieValueBytes — лимит зашифрованного значения одного cookie.
// Браузеры ограничивают cookie примерно 4096 байтами вместе с атрибутами.
const MaxCookieValueBytes = 3800

// CookieBackend — долговременное хранилище в зашифрованных cookie.
// Каждый ключ хранится в отдельном cookie, шифрование AES-256-GCM.
type CookieBackend struct {
	// gcm — AEAD cipher для шифрования/дешифрования.
	gcm cipher.AEAD
	// secure — использовать Secure flag для cookie (true для HTTPS).
	secure bool
	// maxAge — срок жизни cookie.
	maxAge time.Duration
}

// NewCookieBackend создаёт хранилище в зашифрованных cookie.
// key — 32-байтовый ключ (base64) или произвольная строка.
// Если key пустой — генерируется случайный ключ (непостоянный между рестартами).
func NewCookieBackend(key string, secure bool, maxAge time.Duration) (*CookieBackend, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа cookie: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			// Не base64 — хешируем строку до 32 bytes через SHA-256
			h := sha256.Sum256([]byte(key))
			keyBytes = h[:]
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &CookieBackend{
		gcm:    gcm,
		secure: secure,
		maxAge: maxAge,
	}, nil
}

// Bind возвращает хранилище cookie текущего браузера.
func (b *CookieBackend) Bind(w http.ResponseWriter, r *http.Request) Store {
	return &cookieStore{
		backend: b,
		w:       w,
		r:       r,
		written: make(map[string][]byte),
	}
}

// encrypt шифрует plaintext и возвращает base64-строку (nonce prepended).
func (b *CookieBackend) encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, b.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}
	ciphertext := b.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// decrypt дешифрует base64-строку.
func (b *CookieBackend) decrypt(encrypted string) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := b.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := b.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования cookie: %w", err)
	}
	return plaintext, nil
}

// cookieStore — хранилище cookie, привязанное к одному запросу.
// Записанные в этом запросе значения видны последующим Get.
type cookieStore struct {
	backend *CookieBackend
	w       http.ResponseWriter
	r       *http.Request
	// written — значения, записанные в этом запросе (nil — удалено)
	written map[string][]byte
}

func (s *cookieStore) Get(_ context.Context, key string, dst any) (bool, error) {
	plaintext, ok := s.written[key]
	if !ok {
		cookie, err := s.r.Cookie(localCookiePrefix + key)
		if err != nil {
			return false, nil
		}
		plaintext, err = s.backend.decrypt(cookie.Value)
		if err != nil {
			return false, fmt.Errorf("чтение %s: %w", key, err)
		}
	}
	if plaintext == nil {
		return false, nil
	}

	if err := json.Unmarshal(plaintext, dst); err != nil {
		return false, fmt.Errorf("десериализация %s: %w", key, err)
	}
	return true, nil
}

func (s *cookieStore) Set(_ context.Context, key string, value any) error {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("сериализация %s: %w", key, err)
	}

	encrypted, err := s.backend.encrypt(plaintext)
	if err != nil {
		return err
	}
	if len(encrypted) > MaxCookieValueBytes {
		return fmt.Errorf("%s: %d байт: %w", key, len(encrypted), ErrValueTooLarge)
	}

	http.SetCookie(s.w, &http.Cookie{
		Name:     localCookiePrefix + key,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   int(s.backend.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.backend.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.written[key] = plaintext
	return nil
}

func (s *cookieStore) Remove(_ context.Context, key string) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     localCookiePrefix + key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.backend.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.written[key] = nil
	return nil
}
