package errors_test

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	customErrors "github.com/Termicotra/agendamiento/agenda/errors"
)

func response(status int, body string) *http.Response {
	u, _ := url.Parse("http://api.test/api/pacientes/")
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    &http.Request{Method: http.MethodPost, URL: u},
	}
}

func TestFromResponse(t *testing.T) {
	err := customErrors.FromResponse(response(400, `{"errors":{"ci":["ya existe"],"telefono":"requerido"}}`))

	var apiErr *customErrors.APIError
	require.True(t, pkgerrors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "http://api.test/api/pacientes/", apiErr.URL)
	assert.Equal(t, []string{"ya existe"}, apiErr.Fields["ci"])
	assert.Equal(t, []string{"requerido"}, apiErr.Fields["telefono"])
	assert.Contains(t, err.Error(), "unexpected status code 400")
}

func TestFromResponseNonJSON(t *testing.T) {
	err := customErrors.FromResponse(response(502, `<html>bad gateway</html>`))

	var apiErr *customErrors.APIError
	require.True(t, pkgerrors.As(err, &apiErr))
	assert.Equal(t, 502, apiErr.StatusCode)
	assert.Empty(t, apiErr.Detail)
	assert.Nil(t, apiErr.Fields)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		auth       bool
		permission bool
		validation bool
		server     bool
	}{
		{"401", &customErrors.APIError{StatusCode: 401}, true, false, false, false},
		{"403", &customErrors.APIError{StatusCode: 403}, false, true, false, false},
		{"400", &customErrors.APIError{StatusCode: 400}, false, false, true, false},
		{"503", &customErrors.APIError{StatusCode: 503}, false, false, false, true},
		{"wrapped 401", pkgerrors.Wrap(&customErrors.APIError{StatusCode: 401}, "listing"), true, false, false, false},
		{"gate refusal", &customErrors.AccessDeniedError{Required: "turno.create"}, false, true, false, false},
		{"login refusal", &customErrors.AccessDeniedError{Login: true}, false, false, false, false},
		{"plain", pkgerrors.New("boom"), false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.auth, customErrors.IsAuthError(tt.err))
			assert.Equal(t, tt.permission, customErrors.IsPermissionError(tt.err))
			assert.Equal(t, tt.validation, customErrors.IsValidationError(tt.err))
			assert.Equal(t, tt.server, customErrors.IsServerError(tt.err))
		})
	}
}

func TestFieldErrors(t *testing.T) {
	err := pkgerrors.Wrap(&customErrors.APIError{StatusCode: 400, Fields: map[string][]string{"fecha": {"inválida"}}}, "creating")
	assert.Equal(t, []string{"inválida"}, customErrors.FieldErrors(err, "fecha"))
	assert.Nil(t, customErrors.FieldErrors(err, "hora"))
	assert.Nil(t, customErrors.FieldErrors(pkgerrors.New("x"), "fecha"))
}

func TestSessionExpired(t *testing.T) {
	err := pkgerrors.Wrap(&customErrors.SessionExpiredError{Err: customErrors.ErrNoRefreshToken}, "listing")
	assert.True(t, customErrors.IsSessionExpired(err))
	assert.True(t, pkgerrors.Is(err, customErrors.ErrNoRefreshToken))
	assert.False(t, customErrors.IsSessionExpired(pkgerrors.New("x")))
}

func TestLocalize(t *testing.T) {
	es := language.Spanish
	en := language.English

	tests := []struct {
		name string
		err  error
		lang language.Tag
		want string
	}{
		{"nil", nil, es, ""},
		{"detail wins over status", &customErrors.APIError{StatusCode: 400, Detail: "Turno duplicado"}, es, "Turno duplicado"},
		{"message after detail", &customErrors.APIError{StatusCode: 400, Message: "Algo salió mal"}, es, "Algo salió mal"},
		{"400 default es", &customErrors.APIError{StatusCode: 400}, es, "Datos inválidos. Por favor, verifica la información."},
		{"400 default en", &customErrors.APIError{StatusCode: 400}, en, customErrors.MsgBadRequest},
		{"403 es", &customErrors.APIError{StatusCode: 403}, es, "No tienes permisos para realizar esta acción."},
		{"502 falls to server error", &customErrors.APIError{StatusCode: 502}, es, "Error del servidor. Por favor, intenta más tarde."},
		{"418 generic", &customErrors.APIError{StatusCode: 418}, en, customErrors.MsgRequestFailed},
		{"connection", &customErrors.ConnectionError{Err: pkgerrors.New("refused"), URL: "http://x"}, es, "No se pudo conectar con el servidor."},
		{"session expired", &customErrors.SessionExpiredError{Err: pkgerrors.New("401")}, es, "Tu sesión ha expirado. Por favor, inicia sesión nuevamente."},
		{"login required", &customErrors.AccessDeniedError{Login: true}, en, customErrors.MsgLoginRequired},
		{"access denied", &customErrors.AccessDeniedError{}, es, "Acceso denegado. No tienes los permisos necesarios para acceder a esta página."},
		{"regional tag", &customErrors.APIError{StatusCode: 404}, language.MustParse("es-AR"), "Recurso no encontrado."},
		{"plain error", pkgerrors.New("disk full"), es, "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, customErrors.Localize(tt.err, tt.lang))
		})
	}
}

func TestLocalizeFieldErrors(t *testing.T) {
	err := &customErrors.APIError{StatusCode: 400, Fields: map[string][]string{
		"Cédula":        {"ya registrada"},
		"telefono":      {"requerido", "muy corto"},
		"otro_contacto": {"inválido"},
	}}

	got := customErrors.Localize(err, language.Spanish)
	assert.Equal(t, "ya registrada\nOtro Contacto: inválido\nTeléfono: requerido, muy corto", got)
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "Fecha de nacimiento", customErrors.FieldLabel("fecha_nacimiento", language.Spanish))
	assert.Equal(t, "Date of birth", customErrors.FieldLabel("fecha_nacimiento", language.English))
	assert.Equal(t, "Hora Inicio", customErrors.FieldLabel("hora_inicio", language.Spanish))
}

func TestParseLang(t *testing.T) {
	assert.Equal(t, language.Spanish, customErrors.ParseLang(""))
	assert.Equal(t, language.Spanish, customErrors.ParseLang("???"))
	assert.Equal(t, language.English, customErrors.ParseLang("en"))
}
