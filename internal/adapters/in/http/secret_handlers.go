package http

import (
	"net/http"
	"strconv"

	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// StoreSecret handles PUT /secrets/{platform}. The plaintext is sealed under
// the current master key and never echoed back.
func (s *Server) StoreSecret(c echo.Context) error {
	platform, err := webhook.ParsePlatform(c.Param("platform"))
	if err != nil {
		return s.fail(c, err)
	}

	var req StoreSecretRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Secret == "" {
		return s.fail(c, errs.NewValueIsRequiredError("secret"))
	}

	record, err := s.handlers.Secrets.Store(c.Request().Context(), platform, []byte(req.Secret))
	if err != nil {
		return s.fail(c, err)
	}

	s.logger.InfoContext(c.Request().Context(), "signing secret stored",
		"platform", platform.String(), "key_version", record.KeyVersion)
	return c.JSON(http.StatusOK, SecretVersion{Platform: record.Platform.String(), KeyVersion: record.KeyVersion})
}

// RotateSecrets handles POST /secrets/rotate.
func (s *Server) RotateSecrets(c echo.Context) error {
	result, err := s.handlers.Secrets.Rotate(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, Rotation{
		KeyVersion: result.KeyVersion,
		Rotated:    result.Rotated,
		UpToDate:   result.UpToDate,
	})
}

// PurgeKeyVersion handles DELETE /secrets/versions/{version}.
func (s *Server) PurgeKeyVersion(c echo.Context) error {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("key version", err))
	}

	deleted, err := s.handlers.Secrets.PurgeKeyVersion(c.Request().Context(), version)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, Purge{KeyVersion: version, Deleted: deleted})
}
