package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Routes struct {
	Health       *Handler
	Collaterals  *CollateralHandler
	Encumbrances *EncumbranceHandler
	AutoLoan     *AutoLoanHandler
	Records      *RecordsHandler
}

// Register mounts every route. mutating runs on the /api/v1 group only, so
// /health and /metrics never go through idempotency.
func (r Routes) Register(e *echo.Echo, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", r.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1", mutating...)

	cols := api.Group("/collaterals")
	cols.POST("", r.Collaterals.Create)
	cols.GET("", r.Collaterals.List)
	cols.GET("/types", r.Collaterals.Types)
	cols.GET("/statuses", r.Collaterals.Statuses)
	cols.GET("/:collateral_id", r.Collaterals.Get)
	cols.PUT("/:collateral_id", r.Collaterals.Update)
	cols.DELETE("/:collateral_id", r.Collaterals.Delete)
	cols.PUT("/:collateral_id/value", r.Collaterals.UpdateValue)
	cols.POST("/:collateral_id/reconcile", r.Collaterals.Reconcile)
	cols.POST("/:collateral_id/title/verify", r.Collaterals.VerifyTitle)
	cols.POST("/:collateral_id/valuation", r.Collaterals.RequestValuation)
	cols.POST("/:collateral_id/revaluation", r.Collaterals.RequestRevaluation)
	cols.GET("/:collateral_id/market-trends", r.Collaterals.MarketTrends)
	cols.GET("/:collateral_id/comparables", r.Collaterals.Comparables)
	cols.GET("/:collateral_id/ownership", r.Collaterals.Ownership)
	cols.GET("/:collateral_id/title/encumbrances", r.Collaterals.TitleEncumbrances)
	cols.GET("/:collateral_id/encumbrances", r.Encumbrances.ListByCollateral)
	cols.GET("/:collateral_id/encumbrances/total", r.Encumbrances.Total)

	api.GET("/customers/:customer_id/collaterals/available", r.Collaterals.Available)

	encs := api.Group("/encumbrances")
	encs.POST("", r.Encumbrances.Create)
	encs.GET("", r.Encumbrances.List)
	encs.GET("/catalogue", r.Encumbrances.Catalogue)
	encs.GET("/expired", r.Encumbrances.Expired)
	encs.POST("/expire", r.Encumbrances.ExpireAll)
	encs.GET("/:encumbrance_id", r.Encumbrances.Get)
	encs.PUT("/:encumbrance_id", r.Encumbrances.Update)
	encs.DELETE("/:encumbrance_id", r.Encumbrances.Delete)
	encs.POST("/:encumbrance_id/release", r.Encumbrances.Release)
	encs.POST("/:encumbrance_id/partial-release", r.Encumbrances.PartialRelease)

	vals := api.Group("/auto-valuations")
	vals.POST("", r.Records.CreateValuation)
	vals.GET("/statuses", r.Records.ValuationStatuses)
	vals.GET("/collateral/:collateral_id", r.Records.ValuationsByCollateral)
	vals.GET("/collateral/:collateral_id/latest", r.Records.LatestValuation)
	vals.GET("/type/:type", r.Records.ValuationsByType)
	vals.GET("/location/:location", r.Records.ValuationsByLocation)
	vals.GET("/status/:status", r.Records.ValuationsByStatus)
	vals.GET("/:valuation_id", r.Records.GetValuation)
	vals.PUT("/:valuation_id", r.Records.UpdateValuation)
	vals.DELETE("/:valuation_id", r.Records.DeleteValuation)

	titles := api.Group("/title-registry")
	titles.POST("", r.Records.CreateTitle)
	titles.GET("/statuses", r.Records.TitleStatuses)
	titles.GET("/valid", r.Records.ValidTitles)
	titles.GET("/title-number/:title_number", r.Records.TitleByNumber)
	titles.GET("/collateral/:collateral_id", r.Records.TitlesByCollateral)
	titles.GET("/collateral/:collateral_id/latest", r.Records.LatestTitle)
	titles.GET("/owner/:owner", r.Records.TitlesByOwner)
	titles.GET("/owner/:owner/verified", r.Records.VerifiedTitlesByOwner)
	titles.GET("/status/:status", r.Records.TitlesByStatus)
	titles.GET("/:title_id", r.Records.GetTitle)
	titles.PUT("/:title_id", r.Records.UpdateTitle)
	titles.DELETE("/:title_id", r.Records.DeleteTitle)

	auto := api.Group("/auto-loan/valuation")
	auto.POST("/vehicle/appraise", r.AutoLoan.Appraise)
	auto.GET("/vehicle/market-analysis", r.AutoLoan.MarketAnalysis)
	auto.POST("/vehicle/comparable-sales", r.AutoLoan.ComparableSales)
	auto.POST("/loan-to-value/calculate", r.AutoLoan.CalculateLTV)
	auto.POST("/depreciation/forecast", r.AutoLoan.ForecastDepreciation)
}
