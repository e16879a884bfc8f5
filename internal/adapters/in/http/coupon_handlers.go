package http

import (
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
)

// ValidateCoupon handles POST /coupons/validate. It never consumes a use.
func (s *Server) ValidateCoupon(c echo.Context) error {
	var req ValidateCouponRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	query, err := queries.NewValidateCouponQuery(req.Code, req.CartTotal)
	if err != nil {
		return s.fail(c, err)
	}

	quote, err := s.handlers.ValidateCoupon.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, CouponQuote{
		Code:       quote.Code,
		CartTotal:  quote.CartTotal,
		Discount:   quote.Discount,
		FinalTotal: quote.FinalTotal,
	})
}

// RedeemCoupon handles POST /coupons/redeem.
func (s *Server) RedeemCoupon(c echo.Context) error {
	var req RedeemCouponRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cmd, err := commands.NewRedeemCouponCommand(req.Code)
	if err != nil {
		return s.fail(c, err)
	}

	if err = s.handlers.RedeemCoupon.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
