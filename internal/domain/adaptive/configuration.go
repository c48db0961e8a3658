package adaptive

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Ключи настроек курса, как они хранятся в каталоге.
const (
	KeyURL         = "url"
	KeyAPIVersion  = "api_version"
	KeyInstanceID  = "instance_id"
	KeyAccessToken = "access_token"
)

// NotConfiguredSentinel помечает числовой параметр как "не задан".
const NotConfiguredSentinel = -1

var configurationKeys = []string{KeyURL, KeyAPIVersion, KeyInstanceID, KeyAccessToken}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Configuration содержит параметры доступа к сервису адаптивного обучения.
// Значение неизменяемо после создания; эндпоинты вычисляются один раз.
type Configuration struct {
	settings  settings
	endpoints Endpoints
}

type settings struct {
	URL         string `validate:"required,url"`
	APIVersion  string `validate:"required"`
	InstanceID  int64  `validate:"gte=0"`
	AccessToken string `validate:"required"`
}

// NewConfiguration строит Configuration из сырого словаря настроек курса.
// Неизвестные и отсутствующие ключи отклоняются с ErrInvalidConfiguration.
func NewConfiguration(raw map[string]any) (Configuration, error) {
	var problems []string

	for key := range raw {
		if !isConfigurationKey(key) {
			problems = append(problems, fmt.Sprintf("unknown setting %q", key))
		}
	}
	for _, key := range configurationKeys {
		if _, ok := raw[key]; !ok {
			problems = append(problems, fmt.Sprintf("missing setting %q", key))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return Configuration{}, invalidConfiguration(strings.Join(problems, "; "))
	}

	s := settings{
		URL:         strings.TrimRight(stringSetting(raw[KeyURL]), "/"),
		APIVersion:  strings.Trim(stringSetting(raw[KeyAPIVersion]), "/"),
		AccessToken: stringSetting(raw[KeyAccessToken]),
	}
	id, err := coerceInstanceID(raw[KeyInstanceID])
	if err != nil {
		return Configuration{}, invalidConfiguration(err.Error())
	}
	s.InstanceID = id

	return newConfiguration(s)
}

// NewConfigurationFromValues строит Configuration из уже типизированных значений.
func NewConfigurationFromValues(baseURL, apiVersion string, instanceID int64, accessToken string) (Configuration, error) {
	return newConfiguration(settings{
		URL:         strings.TrimRight(baseURL, "/"),
		APIVersion:  strings.Trim(apiVersion, "/"),
		InstanceID:  instanceID,
		AccessToken: accessToken,
	})
}

func newConfiguration(s settings) (Configuration, error) {
	if err := validate.Struct(s); err != nil {
		return Configuration{}, invalidConfiguration(describeValidation(err))
	}
	if u, err := url.Parse(s.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return Configuration{}, invalidConfiguration("url must be absolute")
	}
	return Configuration{settings: s, endpoints: newEndpoints(s)}, nil
}

func (c Configuration) URL() string         { return c.settings.URL }
func (c Configuration) APIVersion() string  { return c.settings.APIVersion }
func (c Configuration) InstanceID() int64   { return c.settings.InstanceID }
func (c Configuration) AccessToken() string { return c.settings.AccessToken }

// Endpoints возвращает вычисленные адреса ресурсов.
func (c Configuration) Endpoints() Endpoints { return c.endpoints }

// IsZero сообщает, что конфигурация не была создана через конструктор.
func (c Configuration) IsZero() bool { return c.settings.URL == "" }

// AuthorizationHeader возвращает значение заголовка Authorization.
func (c Configuration) AuthorizationHeader() string {
	return "Token token=" + c.settings.AccessToken
}

// Fingerprint однозначно описывает конфигурацию; используется как ключ кэша клиентов.
func (c Configuration) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%d|%s", c.settings.URL, c.settings.APIVersion, c.settings.InstanceID, c.settings.AccessToken)
}

// String перечисляет настройки, маскируя токен.
func (c Configuration) String() string {
	return fmt.Sprintf("url=%s api_version=%s instance_id=%d access_token=%s",
		c.settings.URL, c.settings.APIVersion, c.settings.InstanceID, maskToken(c.settings.AccessToken))
}

// ══════════════════════════════════════════════════════════════════════════════
// MEANINGFUL PREDICATE
// ══════════════════════════════════════════════════════════════════════════════

// MeaningfulFunc решает, настроен ли курс для адаптивного обучения.
type MeaningfulFunc func(raw map[string]any) bool

// IsMeaningful предикат по умолчанию. Словарь не пуст, и ни одно значение
// не является пустой строкой, nil или значением-заглушкой -1.
func IsMeaningful(raw map[string]any) bool {
	if len(raw) == 0 {
		return false
	}
	for _, v := range raw {
		if isBlank(v) {
			return false
		}
	}
	return true
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case int:
		return t == NotConfiguredSentinel
	case int32:
		return t == NotConfiguredSentinel
	case int64:
		return t == NotConfiguredSentinel
	case float64:
		return t == NotConfiguredSentinel
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == NotConfiguredSentinel
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func isConfigurationKey(key string) bool {
	for _, k := range configurationKeys {
		if k == key {
			return true
		}
	}
	return false
}

func stringSetting(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func coerceInstanceID(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("instance_id must be an integer, got %v", t)
		}
		return int64(t), nil
	case json.Number:
		id, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("instance_id must be an integer, got %q", t.String())
		}
		return id, nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("instance_id must be an integer, got %q", t)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("instance_id has unsupported type %T", v)
	}
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	names := map[string]string{
		"URL":         KeyURL,
		"APIVersion":  KeyAPIVersion,
		"InstanceID":  KeyInstanceID,
		"AccessToken": KeyAccessToken,
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", names[fe.Field()], fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func invalidConfiguration(reason string) error {
	return shared.WrapError("adaptive", "NewConfiguration", shared.ErrValidation,
		"invalid adaptive learning configuration", fmt.Errorf("%s", reason))
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:2] + strings.Repeat("*", len(token)-4) + token[len(token)-2:]
}
